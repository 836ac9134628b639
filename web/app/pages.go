package app

import (
	"html/template"
	"net/http"

	"github.com/JaimeStill/sightline/internal/analytics"
	"github.com/JaimeStill/sightline/internal/detections"
)

type analyticsPage struct {
	Summary analytics.Summary
	Records []detections.Record
	Chart   []int
	MapJSON template.JS
	City    string
	Lat     float64
	Lon     float64
}

// upload answers form posts in plain text on failure and redirects to the
// dashboard on success.
func (a *App) upload(w http.ResponseWriter, r *http.Request) {
	cmd, err := detections.ParseUpload(r)
	if err != nil {
		a.logger.Warn("upload rejected", "error", err)
		http.Error(w, detections.Message(err), detections.MapHTTPStatus(err))
		return
	}

	rec, err := a.detections.Create(r.Context(), cmd)
	if err != nil {
		status := detections.MapHTTPStatus(err)
		if status >= http.StatusInternalServerError {
			a.logger.Error("upload failed", "error", err)
		} else {
			a.logger.Warn("upload rejected", "error", err)
		}
		http.Error(w, detections.Message(err), status)
		return
	}

	a.logger.Info("upload stored", "id", rec.ID, "detected", rec.DetectedClasses)
	http.Redirect(w, r, a.templates.BasePath()+analyticsView.Route, http.StatusSeeOther)
}

func (a *App) analytics(w http.ResponseWriter, r *http.Request) {
	recs, err := a.detections.ListAll(r.Context())
	if err != nil {
		status := detections.MapHTTPStatus(err)
		a.logger.Error("list detections failed", "error", err)
		http.Error(w, http.StatusText(status), status)
		return
	}

	summary := analytics.Aggregate(recs, a.resolver)
	def := a.resolver.Default()

	page := analyticsPage{
		Summary: summary,
		Records: recs,
		Chart:   summary.Chart(),
		// json.Marshal escapes <, > and &, so the array is safe inside <script>.
		MapJSON: template.JS(summary.MapJSON()),
		City:    a.resolver.CityName(),
		Lat:     def.Lat,
		Lon:     def.Lon,
	}

	if err := a.templates.Render(w, http.StatusOK, analyticsView, page); err != nil {
		a.logger.Error("render analytics failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
