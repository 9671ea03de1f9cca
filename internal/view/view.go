// Package view renders the HTML pages of the site. Templates are embedded
// in the binary and go through html/template, so every interpolated value
// is escaped for the context it lands in.
package view

import (
	"bytes"
	"embed"
	"html/template"
)

// SiteName is shown in titles and the navigation bar.
const SiteName = "RideShare Rwanda"

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Panel is one informational card of the dashboard.
type Panel struct {
	Title string
	Text  string
	Style string
}

// DashboardPanels are the static cards every signed-in user sees.
var DashboardPanels = []Panel{
	{Title: "Find a Ride", Text: "Search for available shared rides.", Style: "bg-primary"},
	{Title: "Offer a Ride", Text: "Share your ride with others.", Style: "bg-success"},
}

// DashboardData is the input of the dashboard template.
type DashboardData struct {
	SiteName   string
	FirstName  string
	LogoutPath string
	Panels     []Panel
}

// NewDashboardData fills the static parts of the dashboard around firstName.
func NewDashboardData(firstName, logoutPath string) DashboardData {
	return DashboardData{
		SiteName:   SiteName,
		FirstName:  firstName,
		LogoutPath: logoutPath,
		Panels:     DashboardPanels,
	}
}

// Dashboard renders the full dashboard document. Nothing is returned on
// error, so callers never send half a page.
func Dashboard(data DashboardData) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
