package domain

import "time"

type NodeStatus string

const (
	NodeOnline  NodeStatus = "online"
	NodeOffline NodeStatus = "offline"
	NodeUnknown NodeStatus = "unknown"
)

func ParseNodeStatus(s string) NodeStatus {
	switch NodeStatus(s) {
	case NodeOnline:
		return NodeOnline
	case NodeOffline:
		return NodeOffline
	default:
		return NodeUnknown
	}
}

// SensorReadings holds one set of soil and air measurements. Zero means the
// sensor did not report.
type SensorReadings struct {
	Moisture          float64 `json:"moisture"`
	Temperature       float64 `json:"temperature"`
	PH                float64 `json:"ph"`
	AirTemperature    float64 `json:"air_temperature"`
	Humidity          float64 `json:"humidity"`
	Nitrogen          float64 `json:"nitrogen"`
	Phosphorus        float64 `json:"phosphorus"`
	Potassium         float64 `json:"potassium"`
	BatteryPercentage float64 `json:"battery_percentage"`
}

type Node struct {
	DocID    string         `json:"doc_id"`
	NodeID   string         `json:"node_id"`
	NodeName string         `json:"node_name,omitempty"`
	Status   NodeStatus     `json:"status"`
	LastSeen *time.Time     `json:"last_seen,omitempty"`
	CropType string         `json:"crop_type,omitempty"`
	Latest   SensorReadings `json:"latest"`
}

func (n Node) DisplayName() string {
	if n.NodeName != "" {
		return n.NodeName
	}
	return n.NodeID
}

type Reading struct {
	ID        string     `json:"id"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	TimeLabel string     `json:"time"`
	SensorReadings
}

type Alert struct {
	ID        string     `json:"id"`
	NodeID    string     `json:"node_id,omitempty"`
	AlertType string     `json:"alert_type,omitempty"`
	Message   string     `json:"message"`
	Severity  string     `json:"severity"`
	Status    string     `json:"status"`
	Parameter string     `json:"parameter,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type NewNodeNotification struct {
	ID        string    `json:"id"`
	NodeID    string    `json:"node_id"`
	NodeName  string    `json:"node_name"`
	Timestamp time.Time `json:"timestamp"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (r Range) IsSet() bool {
	return r.Min != nil || r.Max != nil
}

type Thresholds struct {
	MoistureMin   *float64 `json:"moisture_min,omitempty"`
	MoistureMax   *float64 `json:"moisture_max,omitempty"`
	PHMin         *float64 `json:"ph_min,omitempty"`
	PHMax         *float64 `json:"ph_max,omitempty"`
	TempMin       *float64 `json:"temp_min,omitempty"`
	TempMax       *float64 `json:"temp_max,omitempty"`
	NitrogenMin   *float64 `json:"nitrogen_min,omitempty"`
	NitrogenMax   *float64 `json:"nitrogen_max,omitempty"`
	PhosphorusMin *float64 `json:"phosphorus_min,omitempty"`
	PhosphorusMax *float64 `json:"phosphorus_max,omitempty"`
	PotassiumMin  *float64 `json:"potassium_min,omitempty"`
	PotassiumMax  *float64 `json:"potassium_max,omitempty"`
	HumidityMin   *float64 `json:"humidity_min,omitempty"`
	HumidityMax   *float64 `json:"humidity_max,omitempty"`
}

func (t Thresholds) Moisture() Range    { return Range{Min: t.MoistureMin, Max: t.MoistureMax} }
func (t Thresholds) PH() Range          { return Range{Min: t.PHMin, Max: t.PHMax} }
func (t Thresholds) Temperature() Range { return Range{Min: t.TempMin, Max: t.TempMax} }
func (t Thresholds) Nitrogen() Range    { return Range{Min: t.NitrogenMin, Max: t.NitrogenMax} }
func (t Thresholds) Phosphorus() Range  { return Range{Min: t.PhosphorusMin, Max: t.PhosphorusMax} }
func (t Thresholds) Potassium() Range   { return Range{Min: t.PotassiumMin, Max: t.PotassiumMax} }
func (t Thresholds) Humidity() Range    { return Range{Min: t.HumidityMin, Max: t.HumidityMax} }

func (t Thresholds) IsEmpty() bool {
	for _, r := range []Range{t.Moisture(), t.PH(), t.Temperature(), t.Nitrogen(), t.Phosphorus(), t.Potassium(), t.Humidity()} {
		if r.IsSet() {
			return false
		}
	}
	return true
}

type CropProfile struct {
	CropID        string     `json:"crop_id"`
	CropName      string     `json:"crop_name"`
	Description   string     `json:"description"`
	DocumentCount int        `json:"document_count"`
	Documents     []string   `json:"documents"`
	Thresholds    Thresholds `json:"thresholds"`
	IsActive      bool       `json:"is_active"`
	UpdatedAt     string     `json:"updated_at,omitempty"`
}

type ChatAnswer struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
	Model    string `json:"model"`
}

type CropAssignment struct {
	NodeID     string     `json:"node_id"`
	ActiveCrop string     `json:"active_crop"`
	Thresholds Thresholds `json:"thresholds"`
	Message    string     `json:"message,omitempty"`
}

type UploadResult struct {
	Message       string     `json:"message,omitempty"`
	ChunksCreated int        `json:"chunks_created"`
	Thresholds    Thresholds `json:"thresholds"`
}

type SearchResult struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata"`
	Distance *float64       `json:"distance,omitempty"`
}

type KnowledgeDocument struct {
	Name     string `json:"name"`
	CropType string `json:"crop_type,omitempty"`
}

type AIStatus struct {
	Available bool   `json:"available"`
	Running   bool   `json:"running"`
	Model     string `json:"model,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Message   string `json:"message,omitempty"`
}

type DocumentDeletion struct {
	Message       string `json:"message,omitempty"`
	Status        string `json:"status"`
	Document      string `json:"document"`
	ChunksRemoved int    `json:"chunks_removed"`
}

type Document struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

type Snapshot struct {
	Documents []Document
	ReadTime  time.Time
}
