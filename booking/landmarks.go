package booking

import (
	"fmt"
	"regexp"
	"time"
)

// Landmarks are the textual and structural markers of the target site the
// flow relies on. Any change on the site side is fixed here (or in an
// override file), not in the stages.
type Landmarks struct {
	HomeURL    string `yaml:"home_url"`
	BookingURL string `yaml:"booking_url"`

	ProfileIcon string `yaml:"profile_icon"`

	LocationTrigger   string `yaml:"location_trigger"`
	CenterSearchHint  string `yaml:"center_search_hint"`
	ModalTitle        string `yaml:"modal_title"`
	ModalSearchInput  string `yaml:"modal_search_input"`
	SelectLabel       string `yaml:"select_label"`
	DateCell          string `yaml:"date_cell"`
	TimeRow           string `yaml:"time_row"`
	TimeText          string `yaml:"time_text"`
	ClassCell         string `yaml:"class_cell"`
	UnavailableMarker string `yaml:"unavailable_marker"`
	BookButton        string `yaml:"book_button"`
	BookPattern       string `yaml:"book_pattern"`
	ConfirmPattern    string `yaml:"confirm_pattern"`
	AppInterstitial   string `yaml:"app_interstitial"`
}

// DefaultLandmarks returns the markers of the live site.
func DefaultLandmarks() Landmarks {
	return Landmarks{
		HomeURL:           "https://www.cult.fit/",
		BookingURL:        "https://www.cult.fit/cult/classbooking?pageFrom=cultCLP&pageType=classbooking",
		ProfileIcon:       "img[alt='user_image'], img[src*='user-image'], .user-image, img[src*='profile']",
		LocationTrigger:   "div[class*='location-text'], .city-name, div:has-text('Bangalore')",
		CenterSearchHint:  "Search for center",
		ModalTitle:        "Select A Center",
		ModalSearchInput:  "input[placeholder='Search for names']",
		SelectLabel:       "SELECT",
		DateCell:          ".booking-cell",
		TimeRow:           ".booking-time-row-cell",
		TimeText:          ".time-text",
		ClassCell:         ".class-cell",
		UnavailableMarker: "unavailable-theme",
		BookButton:        "button",
		BookPattern:       "Book|Join",
		ConfirmPattern:    "CONFIRM|PAY|BOOK",
		AppInterstitial:   "Complete your booking on the cult app",
	}
}

// Merge returns l with every non-empty field of o applied on top.
func (l Landmarks) Merge(o Landmarks) Landmarks {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&l.HomeURL, o.HomeURL)
	set(&l.BookingURL, o.BookingURL)
	set(&l.ProfileIcon, o.ProfileIcon)
	set(&l.LocationTrigger, o.LocationTrigger)
	set(&l.CenterSearchHint, o.CenterSearchHint)
	set(&l.ModalTitle, o.ModalTitle)
	set(&l.ModalSearchInput, o.ModalSearchInput)
	set(&l.SelectLabel, o.SelectLabel)
	set(&l.DateCell, o.DateCell)
	set(&l.TimeRow, o.TimeRow)
	set(&l.TimeText, o.TimeText)
	set(&l.ClassCell, o.ClassCell)
	set(&l.UnavailableMarker, o.UnavailableMarker)
	set(&l.BookButton, o.BookButton)
	set(&l.BookPattern, o.BookPattern)
	set(&l.ConfirmPattern, o.ConfirmPattern)
	set(&l.AppInterstitial, o.AppInterstitial)
	return l
}

// compiled holds the case-insensitive patterns derived from Landmarks.
type compiled struct {
	book    *regexp.Regexp
	confirm *regexp.Regexp
}

func (l Landmarks) compile() (compiled, error) {
	book, err := regexp.Compile("(?i)" + l.BookPattern)
	if err != nil {
		return compiled{}, fmt.Errorf("book pattern %q: %w", l.BookPattern, err)
	}
	confirm, err := regexp.Compile("(?i)" + l.ConfirmPattern)
	if err != nil {
		return compiled{}, fmt.Errorf("confirm pattern %q: %w", l.ConfirmPattern, err)
	}
	return compiled{book: book, confirm: confirm}, nil
}

// Validate reports the first unusable landmark.
func (l Landmarks) Validate() error {
	_, err := l.compile()
	return err
}

// Timings are the bounded-wait timeouts and settle delays of the flow.
type Timings struct {
	Poll time.Duration `yaml:"poll"`

	NavigationSettle time.Duration `yaml:"navigation_settle"`
	TriggerVisible   time.Duration `yaml:"trigger_visible"`

	ModalOpenSettle    time.Duration `yaml:"modal_open_settle"`
	SearchInputVisible time.Duration `yaml:"search_input_visible"`
	TypeDelay          time.Duration `yaml:"type_delay"`
	SearchResults      time.Duration `yaml:"search_results"`
	CardClickSettle    time.Duration `yaml:"card_click_settle"`
	ScopedSelect       time.Duration `yaml:"scoped_select"`
	GlobalSelect       time.Duration `yaml:"global_select"`
	ModalClose         time.Duration `yaml:"modal_close"`

	DateTabs        time.Duration `yaml:"date_tabs"`
	DateClickSettle time.Duration `yaml:"date_click_settle"`

	SlotRowAttached time.Duration `yaml:"slot_row_attached"`
	BookButton      time.Duration `yaml:"book_button"`

	ConfirmRole       time.Duration `yaml:"confirm_role"`
	ConfirmVisible    time.Duration `yaml:"confirm_visible"`
	PostConfirmSettle time.Duration `yaml:"post_confirm_settle"`
}

// DefaultTimings returns the delays tuned against the live site.
func DefaultTimings() Timings {
	return Timings{
		Poll:               250 * time.Millisecond,
		NavigationSettle:   3 * time.Second,
		TriggerVisible:     5 * time.Second,
		ModalOpenSettle:    time.Second,
		SearchInputVisible: 5 * time.Second,
		TypeDelay:          100 * time.Millisecond,
		SearchResults:      10 * time.Second,
		CardClickSettle:    time.Second,
		ScopedSelect:       2 * time.Second,
		GlobalSelect:       3 * time.Second,
		ModalClose:         3 * time.Second,
		DateTabs:           5 * time.Second,
		DateClickSettle:    3 * time.Second,
		SlotRowAttached:    5 * time.Second,
		BookButton:         5 * time.Second,
		ConfirmRole:        3 * time.Second,
		ConfirmVisible:     3 * time.Second,
		PostConfirmSettle:  5 * time.Second,
	}
}

// Merge returns t with every non-zero field of o applied on top.
func (t Timings) Merge(o Timings) Timings {
	set := func(dst *time.Duration, v time.Duration) {
		if v != 0 {
			*dst = v
		}
	}
	set(&t.Poll, o.Poll)
	set(&t.NavigationSettle, o.NavigationSettle)
	set(&t.TriggerVisible, o.TriggerVisible)
	set(&t.ModalOpenSettle, o.ModalOpenSettle)
	set(&t.SearchInputVisible, o.SearchInputVisible)
	set(&t.TypeDelay, o.TypeDelay)
	set(&t.SearchResults, o.SearchResults)
	set(&t.CardClickSettle, o.CardClickSettle)
	set(&t.ScopedSelect, o.ScopedSelect)
	set(&t.GlobalSelect, o.GlobalSelect)
	set(&t.ModalClose, o.ModalClose)
	set(&t.DateTabs, o.DateTabs)
	set(&t.DateClickSettle, o.DateClickSettle)
	set(&t.SlotRowAttached, o.SlotRowAttached)
	set(&t.BookButton, o.BookButton)
	set(&t.ConfirmRole, o.ConfirmRole)
	set(&t.ConfirmVisible, o.ConfirmVisible)
	set(&t.PostConfirmSettle, o.PostConfirmSettle)
	return t
}
