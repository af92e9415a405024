package api

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"tailscale.com/tsweb"

	"github.com/banshee-data/mocap.stream/internal/httputil"
	"github.com/banshee-data/mocap.stream/internal/units"
)

// maxTrajectoryPoints bounds the number of points sent to the browser.
const maxTrajectoryPoints = 8000

// AttachAdminRoutes mounts the debug pages under /debug/.
func (s *Server) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.KV("Vicon host", s.host)
	debug.KVFunc("Frames", func() any { return s.frames.Stats().Frames })
	debug.KVFunc("Poll errors", func() any { return s.frames.Stats().Errors })
	debug.Handle("frame", "Latest frame as text", http.HandlerFunc(s.handleFrameText))
	debug.Handle("trajectory", "Top-down trajectory chart (?session=&subject=)", http.HandlerFunc(s.handleTrajectory))
}

func (s *Server) handleFrameText(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	frame, ok := s.frames.Latest()
	if !ok {
		fmt.Fprintln(w, "no frame received yet")
		return
	}
	fmt.Fprintf(w, "frame %d at %s (%s)\n", frame.Seq, frame.Time.Format("15:04:05.000"), frame.Kind)
	for _, subject := range frame.Subjects {
		fmt.Fprintln(w, subject)
	}
}

// handleTrajectory renders the X/Y positions of a recorded subject track, or
// of every subject in the latest frame when no track is requested.
func (s *Server) handleTrajectory(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")
	subject := r.URL.Query().Get("subject")

	var (
		data     []opts.ScatterData
		subtitle string
	)
	if session != "" && subject != "" {
		if s.store == nil {
			httputil.ServiceUnavailable(w, "recording is disabled")
			return
		}
		poses, err := s.store.SubjectTrack(session, subject, 0)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to load track: %v", err))
			return
		}
		if len(poses) == 0 {
			httputil.NotFound(w, "no poses for subject")
			return
		}
		stride := 1
		if len(poses) > maxTrajectoryPoints {
			stride = int(math.Ceil(float64(len(poses)) / float64(maxTrajectoryPoints)))
		}
		data = make([]opts.ScatterData, 0, len(poses)/stride+1)
		for i := 0; i < len(poses); i += stride {
			data = append(data, opts.ScatterData{Value: []interface{}{poses[i].X, poses[i].Y, poses[i].Z}})
		}
		subtitle = fmt.Sprintf("session=%s subject=%s points=%d stride=%d", session, subject, len(data), stride)
	} else {
		frame, ok := s.frames.Latest()
		if !ok {
			httputil.ServiceUnavailable(w, "no frame received yet")
			return
		}
		for _, sub := range frame.Subjects {
			data = append(data, opts.ScatterData{Name: sub.Name, Value: []interface{}{sub.Origin.X, sub.Origin.Y, sub.Origin.Z}})
		}
		subtitle = fmt.Sprintf("latest frame %d subjects=%d", frame.Seq, len(data))
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Mocap trajectory", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Subject positions (top-down)", Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: fmt.Sprintf("X (%s)", units.Meters), NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("Y (%s)", units.Meters), NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("positions", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
