// Package weather provides current conditions for a location code.
package weather

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

type Report struct {
	TempC     float64   `json:"temp_c"`
	Condition string    `json:"condition"`
	IconURL   string    `json:"icon_url"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Client interface {
	Current(ctx context.Context, locationCode string) (Report, error)
}

type condition struct{ name, icon string }

var conditions = []condition{
	{"Sunny", "https://cdn-icons-png.flaticon.com/512/869/869869.png"},
	{"Cloudy", "https://cdn-icons-png.flaticon.com/512/414/414825.png"},
	{"Rain", "https://cdn-icons-png.flaticon.com/512/1163/1163624.png"},
	{"Partly Cloudy", "https://cdn-icons-png.flaticon.com/512/252/252035.png"},
}

// Stub produces plausible randomized readings until a real provider is
// wired in. Temperatures are centred on a per-region base value.
type Stub struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewStub(seed int64) *Stub {
	return &Stub{rnd: rand.New(rand.NewSource(seed)), now: time.Now}
}

func (s *Stub) Current(ctx context.Context, locationCode string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	base := 23.0
	code := strings.ToUpper(locationCode)
	switch {
	case strings.HasPrefix(code, "SEOUL"):
		base = 24.0
	case strings.HasSuffix(code, "_KR"):
		base = 23.5
	}

	s.mu.Lock()
	jitter := s.rnd.Float64()*6 - 3
	c := conditions[s.rnd.Intn(len(conditions))]
	s.mu.Unlock()

	return Report{
		TempC:     math.Round((base+jitter)*10) / 10,
		Condition: c.name,
		IconURL:   c.icon,
		UpdatedAt: s.now().UTC(),
	}, nil
}
