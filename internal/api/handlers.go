// internal/api/handlers.go
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tamzrod/mdc-controller/internal/display"
	"github.com/tamzrod/mdc-controller/internal/executor"
	"github.com/tamzrod/mdc-controller/internal/health"
	"github.com/tamzrod/mdc-controller/internal/mdc"
	"github.com/tamzrod/mdc-controller/internal/wall"
)

type powerRequest struct {
	Action string `json:"action" binding:"required"`
}

type volumeRequest struct {
	Volume *int  `json:"volume"`
	Mute   *bool `json:"mute"`
}

type inputRequest struct {
	Input string `json:"input" binding:"required"`
}

type pictureRequest struct {
	Mode       *string `json:"mode"`
	Brightness *int    `json:"brightness"`
	Contrast   *int    `json:"contrast"`
}

type videoWallRequest struct {
	Enabled   bool `json:"enabled"`
	HMonitors int  `json:"h_monitors"`
	VMonitors int  `json:"v_monitors"`
	HPosition int  `json:"h_position"`
	VPosition int  `json:"v_position"`
}

type layoutRequest struct {
	Layout string `json:"layout" binding:"required"`
}

type bulkPowerRequest struct {
	Action     string `json:"action" binding:"required"`
	DisplayIDs []int  `json:"display_ids"`
}

// displayView is a status plus its session state.
type displayView struct {
	display.Status
	State string `json:"session_state"`
}

// outcomeView is one display's part in a multi-display operation.
type outcomeView struct {
	DisplayID uint8                 `json:"display_id"`
	Success   bool                  `json:"success"`
	Error     string                `json:"error,omitempty"`
	Position  *display.GridPosition `json:"position,omitempty"`
}

func viewOf(ex *executor.Executor) displayView {
	return displayView{Status: ex.Status(), State: ex.State().String()}
}

func outcomeViews(outs []executor.Outcome, l *wall.Layout) []outcomeView {
	views := make([]outcomeView, 0, len(outs))
	for _, o := range outs {
		v := outcomeView{DisplayID: o.DisplayID, Success: o.Err == nil}
		if o.Err != nil {
			v.Error = o.Err.Error()
		}
		if l != nil {
			if pos, ok := l.Positions[o.DisplayID]; ok {
				v.Position = &pos
			}
		}
		views = append(views, v)
	}
	return views
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), ErrorResponse(err.Error()))
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse(msg))
}

// lookup resolves the :id path parameter.
func (s *Server) lookup(c *gin.Context) (*executor.Executor, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 8)
	if err != nil {
		badRequest(c, "invalid display id")
		return nil, false
	}
	ex, err := s.reg.Get(uint8(id))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return ex, true
}

// commandDone replies with the display's refreshed status and broadcasts it.
func (s *Server) commandDone(c *gin.Context, ex *executor.Executor, message string) {
	v := viewOf(ex)
	s.hub.Broadcast(EventDisplayUpdate, v)
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: v, Message: message})
}

func (s *Server) serviceHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"displays": len(s.reg.IDs()),
	})
}

func (s *Server) listDisplays(c *gin.Context) {
	exs := s.reg.All()
	views := make([]displayView, 0, len(exs))
	for _, ex := range exs {
		views = append(views, viewOf(ex))
	}
	c.JSON(http.StatusOK, SuccessResponse(views))
}

func (s *Server) getDisplay(c *gin.Context) {
	ex, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SuccessResponse(viewOf(ex)))
}

func (s *Server) displayHealth(c *gin.Context) {
	ex, ok := s.lookup(c)
	if !ok {
		return
	}
	rep := health.CheckHealth(c.Request.Context(), ex)
	s.hub.Broadcast(EventHealthUpdate, rep)
	c.JSON(http.StatusOK, SuccessResponse(rep))
}

func (s *Server) allHealth(c *gin.Context) {
	reports := health.CheckHealthAll(c.Request.Context(), s.reg.All())
	data := gin.H{
		"reports": reports,
		"summary": health.Summarize(reports),
	}
	s.hub.Broadcast(EventHealthUpdate, data)
	c.JSON(http.StatusOK, SuccessResponse(data))
}

// applyPower runs a power action and returns the resulting power state.
func applyPower(ctx context.Context, ex *executor.Executor, action string) (bool, error) {
	switch strings.ToLower(action) {
	case "on":
		return true, ex.PowerOn(ctx)
	case "off":
		return false, ex.PowerOff(ctx)
	case "toggle":
		return ex.TogglePower(ctx)
	case "status":
		return ex.PowerStatus(ctx)
	default:
		return false, &mdc.Error{Kind: mdc.KindValidation, Msg: "unknown power action " + strconv.Quote(action)}
	}
}

func (s *Server) power(c *gin.Context) {
	ex, ok := s.lookup(c)
	if !ok {
		return
	}
	var req powerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	on, err := applyPower(c.Request.Context(), ex, req.Action)
	if err != nil {
		fail(c, err)
		return
	}
	state := "off"
	if on {
		state = "on"
	}
	s.commandDone(c, ex, "power "+state)
}

func (s *Server) volume(c *gin.Context) {
	ex, ok := s.lookup(c)
	if !ok {
		return
	}
	var req volumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Volume == nil && req.Mute == nil {
		badRequest(c, "volume or mute required")
		return
	}

	ctx := c.Request.Context()
	if req.Volume != nil {
		if err := ex.SetVolume(ctx, *req.Volume); err != nil {
			fail(c, err)
			return
		}
	}
	if req.Mute != nil {
		if err := ex.SetMute(ctx, *req.Mute); err != nil {
			fail(c, err)
			return
		}
	}
	s.commandDone(c, ex, "volume updated")
}

func (s *Server) input(c *gin.Context) {
	ex, ok := s.lookup(c)
	if !ok {
		return
	}
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	src, err := mdc.ParseInputSource(strings.ToUpper(req.Input))
	if err != nil {
		fail(c, err)
		return
	}
	if err := ex.SetInput(c.Request.Context(), src); err != nil {
		fail(c, err)
		return
	}
	s.commandDone(c, ex, "input set to "+src.String())
}

func (s *Server) picture(c *gin.Context) {
	ex, ok := s.lookup(c)
	if !ok {
		return
	}
	var req pictureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Mode == nil && req.Brightness == nil && req.Contrast == nil {
		badRequest(c, "mode, brightness or contrast required")
		return
	}

	ctx := c.Request.Context()
	if req.Mode != nil {
		m, err := mdc.ParsePictureMode(strings.ToUpper(*req.Mode))
		if err != nil {
			fail(c, err)
			return
		}
		if err := ex.SetPictureMode(ctx, m); err != nil {
			fail(c, err)
			return
		}
	}
	if req.Brightness != nil {
		if err := ex.SetBrightness(ctx, *req.Brightness); err != nil {
			fail(c, err)
			return
		}
	}
	if req.Contrast != nil {
		if err := ex.SetContrast(ctx, *req.Contrast); err != nil {
			fail(c, err)
			return
		}
	}
	s.commandDone(c, ex, "picture updated")
}

func (s *Server) videoWall(c *gin.Context) {
	ex, ok := s.lookup(c)
	if !ok {
		return
	}
	var req videoWallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	w := mdc.WallDisabled
	if req.Enabled {
		w = mdc.VideoWall{
			Enabled:   true,
			HMonitors: req.HMonitors,
			VMonitors: req.VMonitors,
			HPosition: req.HPosition,
			VPosition: req.VPosition,
		}
	}
	if err := ex.SetVideoWall(c.Request.Context(), w); err != nil {
		fail(c, err)
		return
	}
	s.commandDone(c, ex, "video wall updated")
}

func (s *Server) reset(c *gin.Context) {
	ex, ok := s.lookup(c)
	if !ok {
		return
	}
	if err := ex.Reset(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	s.commandDone(c, ex, "connection reset")
}

func (s *Server) wallLayouts(c *gin.Context) {
	ids := s.reg.IDs()
	if len(ids) == 0 {
		badRequest(c, "no displays configured")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse(gin.H{
		"display_count":     len(ids),
		"available_layouts": wall.Layouts(ids),
		"max_grid_size":     strconv.Itoa(mdc.MaxWallMonitors) + "x" + strconv.Itoa(mdc.MaxWallMonitors),
	}))
}

func (s *Server) wallApply(c *gin.Context) {
	var req layoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	h, v, err := wall.ParseName(req.Layout)
	if err != nil {
		fail(c, err)
		return
	}

	res, err := wall.Apply(c.Request.Context(), s.reg.All(), h, v)
	if err != nil {
		fail(c, err)
		return
	}
	s.wallDone(c, res)
}

func (s *Server) wallDisable(c *gin.Context) {
	s.wallDone(c, wall.Disable(c.Request.Context(), s.reg.All()))
}

func (s *Server) wallDone(c *gin.Context, res wall.Result) {
	data := gin.H{
		"results":      outcomeViews(res.Outcomes, res.Layout),
		"success_rate": res.SuccessRate(),
	}
	if res.Layout != nil {
		data["layout"] = res.Layout
	}
	s.hub.Broadcast(EventVideoWallUpdate, data)
	c.JSON(http.StatusOK, SuccessResponse(data))
}

func (s *Server) bulkPower(c *gin.Context) {
	var req bulkPowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	action := strings.ToLower(req.Action)
	if action != "on" && action != "off" {
		badRequest(c, "bulk action must be on or off")
		return
	}

	exs := s.reg.All()
	if len(req.DisplayIDs) > 0 {
		exs = exs[:0:0]
		for _, id := range req.DisplayIDs {
			if id < 0 || id > 255 {
				badRequest(c, "invalid display id "+strconv.Itoa(id))
				return
			}
			ex, err := s.reg.Get(uint8(id))
			if err != nil {
				fail(c, err)
				return
			}
			exs = append(exs, ex)
		}
	}

	outs := executor.Each(c.Request.Context(), exs, func(ctx context.Context, ex *executor.Executor) error {
		_, err := applyPower(ctx, ex, action)
		return err
	})
	data := gin.H{
		"action":     action,
		"results":    outcomeViews(outs, nil),
		"successful": len(outs) - executor.Failed(outs),
		"failed":     executor.Failed(outs),
	}
	s.hub.Broadcast(EventBulkPower, data)
	c.JSON(http.StatusOK, SuccessResponse(data))
}
