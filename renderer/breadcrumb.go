package renderer

import "strings"

// routeLabels are the human names of the dashboard routes.
var routeLabels = map[string]string{
	"":          "Home",
	"settings":  "Settings",
	"profile":   "Profile",
	"broker":    "Broker Access",
	"privacy":   "Privacy",
	"group":     "Group Management",
	"positions": "Positions",
	"feed":      "Feed",
}

// Breadcrumb renders the trail of a route path such as "/settings/broker".
// The root path is "Home". Segments without a label are shown verbatim.
// The last segment is emphasized.
func Breadcrumb(path string) string {
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		segments = []string{""}
	}
	crumbs := make([]string, len(segments))
	for i, s := range segments {
		label, ok := routeLabels[s]
		if !ok {
			label = s
		}
		if i == len(segments)-1 {
			label = "**" + label + "**"
		}
		crumbs[i] = label
	}
	return strings.Join(crumbs, " / ")
}
