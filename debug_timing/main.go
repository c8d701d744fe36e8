package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"cult-booker/client"
)

// Checks how close the -at wake lands to its target on this machine.
func main() {
	log, _ := zap.NewDevelopment()
	defer log.Sync()

	scheduler := client.NewScheduler()
	for i := 1; i <= 3; i++ {
		target := time.Now().Add(1 * time.Second)
		fmt.Printf("\n[Test %d] Sleeping until: %s\n", i, target.Format("15:04:05.000000"))

		drift, err := scheduler.SleepUntil(context.Background(), target)
		if err != nil {
			log.Fatal("sleep interrupted", zap.Error(err))
		}
		fmt.Printf("   -> Woke up at: %s\n", time.Now().Format("15:04:05.000000"))
		scheduler.LogDrift(log, drift)
	}
}
