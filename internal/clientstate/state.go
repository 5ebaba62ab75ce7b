// Package clientstate holds the durable per-user state the engine mutates
// as it observes host events: ad history, seen-ad bits, classification
// history, search/shop flags, locale, SSID and place labels (spec.md §4.3
// ClientState). Nothing in this package persists the document: MarshalJSON
// serializes it, and handing it to the host is left to the caller. The
// engine in this repository loads it at startup but does not save it after
// mutations.
package clientstate

import (
	"encoding/json"
	"sync"
)

// DefaultPageScoreHistoryLimit is the default retention length for
// page-score vectors (spec.md §9 Open Question 3).
const DefaultPageScoreHistoryLimit = 5

// State is the full persisted client-state document.
type State struct {
	AdsEnabled          bool               `json:"adsEnabled"`
	AdUUID              string             `json:"adUUID"`
	Locale              string             `json:"locale"`
	Locales             []string           `json:"locales"`
	AdsShownHistory     []int64            `json:"adsShownHistory"`
	AdsUUIDSeen         map[string]bool    `json:"adsUUIDSeen"`
	PageScoreHistory    [][]float64        `json:"pageScoreHistory"`
	CurrentSSID         string             `json:"currentSSID"`
	SearchState         bool               `json:"searchState"`
	SearchURL           string             `json:"searchURL"`
	ShopState           bool               `json:"shopState"`
	ShopURL             string             `json:"shopURL"`
	LastUserActivity    int64              `json:"lastUserActivity"`
	LastUserIdleStopTime int64             `json:"lastUserIdleStopTime"`
	Available           bool               `json:"available"`
	Places              map[string]string  `json:"places"`
}

// New returns a zero-valued State with its maps initialized.
func New() *State {
	return &State{
		AdsUUIDSeen: map[string]bool{},
		Places:      map[string]string{},
	}
}

// ClientState wraps a State with the mutation operations of spec.md §4.3
// and a page-score retention limit. All operations are safe for concurrent
// use.
type ClientState struct {
	mu                     sync.Mutex
	state                  *State
	pageScoreHistoryLimit  int
	generateUUID           func() string
}

// Option configures a ClientState at construction.
type Option func(*ClientState)

// WithPageScoreHistoryLimit overrides DefaultPageScoreHistoryLimit.
func WithPageScoreHistoryLimit(n int) Option {
	return func(c *ClientState) { c.pageScoreHistoryLimit = n }
}

// WithUUIDGenerator supplies the function used by UpdateAdUUID to mint a new
// identifier. There is no default: without one, UpdateAdUUID leaves an
// empty uuid empty. Callers embedding a host typically pass
// host.GenerateUUID.
func WithUUIDGenerator(f func() string) Option {
	return func(c *ClientState) { c.generateUUID = f }
}

// NewClientState constructs a ClientState wrapping an initial document.
func NewClientState(initial *State, opts ...Option) *ClientState {
	if initial == nil {
		initial = New()
	}
	if initial.AdsUUIDSeen == nil {
		initial.AdsUUIDSeen = map[string]bool{}
	}
	if initial.Places == nil {
		initial.Places = map[string]string{}
	}
	c := &ClientState{
		state:                 initial,
		pageScoreHistoryLimit: DefaultPageScoreHistoryLimit,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns a deep copy of the current state, safe to serialize
// without racing further mutations.
func (c *ClientState) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneState(*c.state)
}

func cloneState(s State) State {
	out := s
	out.Locales = append([]string(nil), s.Locales...)
	out.AdsShownHistory = append([]int64(nil), s.AdsShownHistory...)
	out.AdsUUIDSeen = make(map[string]bool, len(s.AdsUUIDSeen))
	for k, v := range s.AdsUUIDSeen {
		out.AdsUUIDSeen[k] = v
	}
	out.PageScoreHistory = make([][]float64, len(s.PageScoreHistory))
	for i, vec := range s.PageScoreHistory {
		out.PageScoreHistory[i] = append([]float64(nil), vec...)
	}
	out.Places = make(map[string]string, len(s.Places))
	for k, v := range s.Places {
		out.Places[k] = v
	}
	return out
}

// MarshalJSON serializes the current state document.
func (c *ClientState) MarshalJSON() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return json.Marshal(c.state)
}

// LoadJSON replaces the current state with a parsed document.
func (c *ClientState) LoadJSON(data []byte) error {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s.AdsUUIDSeen == nil {
		s.AdsUUIDSeen = map[string]bool{}
	}
	if s.Places == nil {
		s.Places = map[string]string{}
	}
	c.mu.Lock()
	c.state = &s
	c.mu.Unlock()
	return nil
}

// AppendPageScore pushes a new score vector to the front of the retained
// history, dropping entries beyond pageScoreHistoryLimit.
func (c *ClientState) AppendPageScore(vector []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	history := append([][]float64{append([]float64(nil), vector...)}, c.state.PageScoreHistory...)
	if len(history) > c.pageScoreHistoryLimit {
		history = history[:c.pageScoreHistoryLimit]
	}
	c.state.PageScoreHistory = history
}

// WinnerOverTime sums coordinate-wise across the retained page-score
// vectors and returns the index of the highest-scoring coordinate, breaking
// ties by first index. ok is false when there is no history, or when the
// retained vectors do not all share the same dimension.
func (c *ClientState) WinnerOverTime() (winner int, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return winnerOverTime(c.state.PageScoreHistory)
}

func winnerOverTime(history [][]float64) (int, bool) {
	if len(history) == 0 {
		return 0, false
	}
	dim := len(history[0])
	if dim == 0 {
		return 0, false
	}
	sums := make([]float64, dim)
	for _, vec := range history {
		if len(vec) != dim {
			return 0, false
		}
		for i, v := range vec {
			sums[i] += v
		}
	}
	winner := 0
	for i := 1; i < dim; i++ {
		if sums[i] > sums[winner] {
			winner = i
		}
	}
	return winner, true
}

// AppendAdShown records a notification emission timestamp (unix seconds).
func (c *ClientState) AppendAdShown(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.AdsShownHistory = append(c.state.AdsShownHistory, now)
}

// AdsShownRecent counts history entries within windowSeconds of now.
func (c *ClientState) AdsShownRecent(windowSeconds int64, now int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, t := range c.state.AdsShownHistory {
		if now-t < windowSeconds {
			count++
		}
	}
	return count
}

// MarkSeen sets the seen bit for a creative uuid.
func (c *ClientState) MarkSeen(uuid string, seen bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.AdsUUIDSeen[uuid] = seen
}

// IsSeen reports whether a creative uuid has been marked seen.
func (c *ClientState) IsSeen(uuid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.AdsUUIDSeen[uuid]
}

// ResetSeen clears the seen bit for every uuid in uuids (used on
// round-robin wrap, once every ad in a category has been seen).
func (c *ClientState) ResetSeen(uuids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range uuids {
		c.state.AdsUUIDSeen[u] = false
	}
}

// FlagShop records that the current page is a shopping page.
func (c *ClientState) FlagShop(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ShopState = true
	c.state.ShopURL = url
}

// UnflagShop clears the shopping flag.
func (c *ClientState) UnflagShop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ShopState = false
	c.state.ShopURL = ""
}

// FlagSearch records that the current page is a search-results page.
func (c *ClientState) FlagSearch(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SearchState = true
	c.state.SearchURL = url
}

// UnflagSearch clears the search flag.
func (c *ClientState) UnflagSearch(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SearchState = false
	c.state.SearchURL = ""
}

// UpdateAdUUID generates a new v4 uuid via the configured generator if one
// is not already set.
func (c *ClientState) UpdateAdUUID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.AdUUID == "" && c.generateUUID != nil {
		c.state.AdUUID = c.generateUUID()
	}
	return c.state.AdUUID
}

// SetLocale updates the active locale and the full available-locales list.
func (c *ClientState) SetLocale(locale string, locales []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Locale = locale
	c.state.Locales = locales
}

// SetSSID records the current SSID.
func (c *ClientState) SetSSID(ssid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.CurrentSSID = ssid
}

// SetPlace labels the given ssid.
func (c *ClientState) SetPlace(ssid, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Places[ssid] = label
}

// Place returns the label for ssid, if any.
func (c *ClientState) Place(ssid string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	label, ok := c.state.Places[ssid]
	return label, ok
}

// SetLastUserActivity records the last observed user-activity timestamp.
func (c *ClientState) SetLastUserActivity(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LastUserActivity = now
}

// SetLastUserIdleStopTime records when the user stopped being idle.
func (c *ClientState) SetLastUserIdleStopTime(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LastUserIdleStopTime = now
}

// SetAvailable records whether the host currently permits notifications.
func (c *ClientState) SetAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Available = available
}

// SetAdsEnabled records the host's ads-enabled flag.
func (c *ClientState) SetAdsEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.AdsEnabled = enabled
}
