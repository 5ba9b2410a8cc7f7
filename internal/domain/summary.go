package domain

import "strings"

// Gaza children and women totals stopped being updated upstream on
// staleDemographicsDate and have repeated these exact values since.
const (
	staleChildrenKilled   = 18000
	staleWomenKilled      = 12400
	staleDemographicsDate = "2025-04-18"
)

var sourceNames = map[string]string{
	"gaza_ministry_of_health":      "Gaza Ministry of Health",
	"gaza_government_media_office": "Gaza Government Media Office",
	"unocha":                       "UN OCHA",
	"un_ocha":                      "UN OCHA",
	"mohtel":                       "Gaza Ministry of Health",
	"gmofp":                        "Gaza Government Media Office",
	"gmotel":                       "Gaza Government Media Office",
}

// SourceName turns a report_source tag into a display name.
func SourceName(source string) string {
	if source == "" {
		return "Unknown Source"
	}
	if name, ok := sourceNames[source]; ok {
		return name
	}
	words := strings.Fields(strings.ReplaceAll(source, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Estimate marks a figure that is a frozen minimum rather than a live count.
type Estimate struct {
	Value       int64  `json:"value"`
	IsEstimate  bool   `json:"is_estimate"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// Summary is the headline view of a region's latest report.
type Summary struct {
	Region       Region    `json:"region"`
	RegionName   string    `json:"region_name"`
	Date         string    `json:"date"`
	Source       string    `json:"source"`
	DailyKilled  int64     `json:"daily_killed"`
	DailyInjured int64     `json:"daily_injured"`
	TotalKilled  int64     `json:"total_killed"`
	TotalInjured int64     `json:"total_injured"`
	Children     Estimate  `json:"children_killed"`
	Women        *Estimate `json:"women_killed,omitempty"`
	Medical      *int64    `json:"medical_killed,omitempty"`
	Press        *int64    `json:"press_killed,omitempty"`
	Settler      *int64    `json:"settler_attacks,omitempty"`
}

// Summarize builds the headline figures from the latest record in series.
func Summarize(series Series, region Region) (Summary, bool) {
	latest, ok := series.Latest()
	if !ok {
		return Summary{}, false
	}
	info := region.Info()

	s := Summary{
		Region:       region,
		RegionName:   info.Name,
		Date:         latest.Date,
		Source:       SourceName(latest.Source),
		DailyKilled:  latest.DailyKilled,
		DailyInjured: latest.DailyInjured,
		TotalKilled:  latest.Killed,
		TotalInjured: latest.Injured,
		Children:     Estimate{Value: latest.ChildrenKilled},
	}

	if info.HasProfessionals {
		women := Estimate{Value: latest.WomenKilled}
		if latest.WomenKilled == staleWomenKilled {
			women.IsEstimate, women.LastUpdated = true, staleDemographicsDate
		}
		if latest.ChildrenKilled == staleChildrenKilled {
			s.Children.IsEstimate, s.Children.LastUpdated = true, staleDemographicsDate
		}
		medical, press := latest.MedicalKilled, latest.PressKilled
		s.Women, s.Medical, s.Press = &women, &medical, &press
	}
	if info.HasSettlerAttacks {
		settler := latest.SettlerAttacksCum
		s.Settler = &settler
	}
	return s, true
}
