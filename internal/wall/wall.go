// internal/wall/wall.go
package wall

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tamzrod/mdc-controller/internal/display"
	"github.com/tamzrod/mdc-controller/internal/executor"
	"github.com/tamzrod/mdc-controller/internal/mdc"
)

// Panel resolution used for the reported wall resolution.
const (
	panelWidth  = 1920
	panelHeight = 1080
)

// Layout is an h x v grid and the position of each display in it.
type Layout struct {
	Name       string                         `json:"name"`
	Horizontal int                            `json:"horizontal"`
	Vertical   int                            `json:"vertical"`
	Total      int                            `json:"total_displays"`
	Resolution string                         `json:"total_resolution"`
	Positions  map[uint8]display.GridPosition `json:"display_mapping"`
}

// Plan assigns the first h*v displays (ordered by id) to an h x v grid.
// Display i gets position (i%h+1, i/h+1).
func Plan(ids []uint8, h, v int) (Layout, error) {
	if h < 1 || v < 1 || h > mdc.MaxWallMonitors || v > mdc.MaxWallMonitors {
		return Layout{}, invalid("%dx%d outside 1x1..%dx%d", h, v, mdc.MaxWallMonitors, mdc.MaxWallMonitors)
	}
	if h*v > len(ids) {
		return Layout{}, invalid("%dx%d needs %d displays, have %d", h, v, h*v, len(ids))
	}

	sorted := append([]uint8(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	l := Layout{
		Name:       fmt.Sprintf("%dx%d", h, v),
		Horizontal: h,
		Vertical:   v,
		Total:      h * v,
		Resolution: fmt.Sprintf("%dx%d", panelWidth*h, panelHeight*v),
		Positions:  make(map[uint8]display.GridPosition, h*v),
	}
	for i, id := range sorted[:h*v] {
		l.Positions[id] = display.GridPosition{H: i%h + 1, V: i/h + 1}
	}
	return l, nil
}

// Layouts lists every grid that uses all displays exactly, narrowest first.
func Layouts(ids []uint8) []Layout {
	n := len(ids)
	var out []Layout
	for h := 1; h <= n && h <= mdc.MaxWallMonitors; h++ {
		if n%h != 0 {
			continue
		}
		if l, err := Plan(ids, h, n/h); err == nil {
			out = append(out, l)
		}
	}
	return out
}

// ParseName parses "HxV".
func ParseName(name string) (h, v int, err error) {
	hs, vs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(name)), "x")
	if !ok {
		return 0, 0, invalid("layout %q is not HxV", name)
	}
	if h, err = strconv.Atoi(hs); err != nil {
		return 0, 0, invalid("layout %q: bad width", name)
	}
	if v, err = strconv.Atoi(vs); err != nil {
		return 0, 0, invalid("layout %q: bad height", name)
	}
	return h, v, nil
}

func invalid(format string, args ...any) error {
	return &mdc.Error{Kind: mdc.KindValidation, Msg: "wall: " + fmt.Sprintf(format, args...)}
}

// Result reports a wall operation per display.
type Result struct {
	Layout   *Layout            `json:"layout,omitempty"`
	Outcomes []executor.Outcome `json:"-"`
}

// SuccessRate is the fraction of displays that accepted the change.
func (r Result) SuccessRate() float64 {
	if len(r.Outcomes) == 0 {
		return 0
	}
	return float64(len(r.Outcomes)-executor.Failed(r.Outcomes)) / float64(len(r.Outcomes))
}

// Apply configures an h x v wall over exs concurrently.
// Displays beyond the first h*v are left untouched.
func Apply(ctx context.Context, exs []*executor.Executor, h, v int) (Result, error) {
	byID := make(map[uint8]*executor.Executor, len(exs))
	ids := make([]uint8, 0, len(exs))
	for _, ex := range exs {
		id := ex.Endpoint().ID
		byID[id] = ex
		ids = append(ids, id)
	}

	l, err := Plan(ids, h, v)
	if err != nil {
		return Result{}, err
	}

	members := make([]*executor.Executor, 0, l.Total)
	for _, id := range ids {
		if _, ok := l.Positions[id]; ok {
			members = append(members, byID[id])
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].Endpoint().ID < members[j].Endpoint().ID })

	outs := executor.Each(ctx, members, func(ctx context.Context, ex *executor.Executor) error {
		pos := l.Positions[ex.Endpoint().ID]
		return ex.SetVideoWall(ctx, mdc.VideoWall{
			Enabled:   true,
			HMonitors: h,
			VMonitors: v,
			HPosition: pos.H,
			VPosition: pos.V,
		})
	})
	return Result{Layout: &l, Outcomes: outs}, nil
}

// Disable turns wall mode off on every display concurrently.
func Disable(ctx context.Context, exs []*executor.Executor) Result {
	outs := executor.Each(ctx, exs, func(ctx context.Context, ex *executor.Executor) error {
		return ex.SetVideoWall(ctx, mdc.WallDisabled)
	})
	return Result{Outcomes: outs}
}
