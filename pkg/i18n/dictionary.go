package i18n

import "sprouthub/pkg/domain"

var dictionaries = map[string]map[string]string{
	domain.LanguageEnglish: {
		"sproutHub":         "Sprout Hub",
		"loading":           "Loading Sprout Hub System...",
		"detectingNodes":    "Detecting soil nodes...",
		"noNodesDetected":   "No Soil Nodes Detected",
		"waitingForNodes":   "Waiting for soil nodes to come online...",
		"newNodeDetected":   "New Node Detected!",
		"isNowOnline":       "is now online",
		"activeAlerts":      "Active Alerts",
		"noAlerts":          "No active alerts",
		"lastSeen":          "Last seen",
		"never":             "Never",
		"battery":           "Battery",
		"online":            "Online",
		"offline":           "Offline",
		"unknown":           "Unknown",
		"optimal":           "Optimal",
		"critical":          "Critical",
		"tooWet":            "Too Wet",
		"tooHot":            "Too Hot",
		"tooCold":           "Too Cold",
		"normal":            "Normal",
		"tooAcidic":         "Too Acidic",
		"tooAlkaline":       "Too Alkaline",
		"neutral":           "Neutral",
		"noData":            "No Data",
		"veryHot":           "Very Hot",
		"cool":              "Cool",
		"comfortable":       "Comfortable",
		"dry":               "Dry",
		"veryHumid":         "Very Humid",
		"aiAgronomist":      "AI Agronomist",
		"askAboutSoil":      "Ask about soil, crops...",
		"hello":             "Hello! I am your AI Agronomist. Ask me about your soil health or crop conditions.",
		"aiConnectionError": "Error connecting to AI. Please check if the server is running.",
		"libraryLoadFailed": "Failed to load Knowledge Library",
		"invalidFileType":   "Please upload PDF, DOCX, or TXT files only",
		"cropTypeRequired":  "Crop type is required to build the Knowledge Library",
		"profileUpdated":    "\"%s\" profile updated! Created %d knowledge chunks.",
		"uploadFailed":      "Upload failed",
		"nodeSwitched":      "Node switched to \"%s\" profile!",
		"assignmentFailed":  "Assignment failed",
		"profileDeleted":    "\"%s\" profile deleted",
		"deleteFailed":      "Delete failed",
		"documentDeleted":   "\"%s\" deleted, %d knowledge chunks removed",
		"searchFailed":      "Search failed",
		"english":           "English",
		"filipino":          "Filipino",
	},
	domain.LanguageFilipino: {
		"sproutHub":         "Sprout Hub",
		"loading":           "Niloload ang Sprout Hub System...",
		"detectingNodes":    "Naghahanap ng mga soil node...",
		"noNodesDetected":   "Walang Nadetect na Soil Node",
		"waitingForNodes":   "Naghihintay para sa mga soil node na mag-online...",
		"newNodeDetected":   "May Bagong Node na Nadetect!",
		"isNowOnline":       "ay online na",
		"activeAlerts":      "Mga Aktibong Alerto",
		"noAlerts":          "Walang mga aktibong alerto",
		"lastSeen":          "Huling nakita",
		"never":             "Hindi pa",
		"battery":           "Baterya",
		"online":            "Online",
		"offline":           "Offline",
		"unknown":           "Hindi alam",
		"optimal":           "Tama",
		"critical":          "Kritikal",
		"tooWet":            "Sobrang Basa",
		"tooHot":            "Sobrang Init",
		"tooCold":           "Sobrang Lamig",
		"normal":            "Normal",
		"tooAcidic":         "Masyadong Asido",
		"tooAlkaline":       "Masyadong Alkaline",
		"neutral":           "Neutral",
		"noData":            "Walang Data",
		"veryHot":           "Napakainit",
		"cool":              "Malamig",
		"comfortable":       "Komportable",
		"dry":               "Tuyo",
		"veryHumid":         "Napakahalumigmig",
		"aiAgronomist":      "AI Agronomo",
		"askAboutSoil":      "Magtanong tungkol sa lupa, tanim...",
		"hello":             "Kumusta! Ako ang iyong AI Agronomo. Magtanong tungkol sa kalusugan ng iyong lupa o tanim.",
		"aiConnectionError": "Error sa pag-connect sa AI. Siguruhing tumatakbo ang server.",
		"libraryLoadFailed": "Nabigo ang pag-load ng Knowledge Library",
		"invalidFileType":   "PDF, DOCX, o TXT lamang ang maaaring i-upload",
		"cropTypeRequired":  "Kailangan ang uri ng pananim para mabuo ang Knowledge Library",
		"profileUpdated":    "Na-update ang \"%s\" profile! Lumikha ng %d knowledge chunk.",
		"uploadFailed":      "Nabigo ang pag-upload",
		"nodeSwitched":      "Inilipat ang node sa \"%s\" profile!",
		"assignmentFailed":  "Nabigo ang pag-assign",
		"profileDeleted":    "Tinanggal ang \"%s\" profile",
		"deleteFailed":      "Nabigo ang pagtanggal",
		"documentDeleted":   "Tinanggal ang \"%s\", %d knowledge chunk ang inalis",
		"searchFailed":      "Nabigo ang paghahanap",
		"english":           "English",
		"filipino":          "Filipino",
	},
}

// statusKeys maps dashboard status labels to dictionary keys.
var statusKeys = map[string]string{
	"Optimal":      "optimal",
	"Critical":     "critical",
	"Too Wet":      "tooWet",
	"Too Hot":      "tooHot",
	"Too Cold":     "tooCold",
	"Normal":       "normal",
	"Too Acidic":   "tooAcidic",
	"Too Alkaline": "tooAlkaline",
	"Neutral":      "neutral",
	"No Data":      "noData",
	"Very Hot":     "veryHot",
	"Cool":         "cool",
	"Comfortable":  "comfortable",
	"Dry":          "dry",
	"Very Humid":   "veryHumid",
	"Online":       "online",
	"Offline":      "offline",
	"Unknown":      "unknown",
}
