package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cult-booker/booking"
	"cult-booker/client"
)

// Probes the booking page through every proxy in a list, so dead or
// banned exits can be dropped before a booking window opens.
func main() {
	list := flag.String("proxies", "proxies.txt", "proxy list, one URL per line")
	target := flag.String("url", booking.DefaultLandmarks().BookingURL, "page to probe")
	timeout := flag.Duration("timeout", 15*time.Second, "per-probe timeout")
	flag.Parse()

	pm := client.NewProxyManager()
	n, err := pm.LoadProxies(*list)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load proxies: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Probing %s through %d proxies\n", *target, n)

	fm := client.NewFingerprintManager()
	for i := 0; i < n; i++ {
		proxyURL := pm.GetSticky()
		pm.RotateSticky()

		p := client.NewProber(client.ProberOptions{
			ProxyURL:  proxyURL,
			UserAgent: fm.GetRandomUserAgent(),
			Headers:   fm.GetRandomHeaders(),
			Timeout:   *timeout,
		})
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		res, err := p.Probe(ctx, *target)
		cancel()

		switch {
		case err != nil:
			fmt.Printf("[%d] %s  error: %v\n", i+1, client.MaskProxy(proxyURL), err)
		case res.Error != "":
			fmt.Printf("[%d] %s  failed: %s\n", i+1, client.MaskProxy(proxyURL), res.Error)
		default:
			verdict := "ok"
			if p.Safety().IsTriggered() {
				verdict = "BLOCKED"
			}
			fmt.Printf("[%d] %s  %d %s  tls=%v ttfb=%v  %s\n", i+1, client.MaskProxy(proxyURL),
				res.StatusCode, res.Protocol, res.TLSHandshakeDone, res.GotFirstResponseByte, verdict)
		}
	}
}
