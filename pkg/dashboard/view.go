package dashboard

import (
	"time"

	"sprouthub/pkg/domain"
)

const (
	lastSeenLayout = "Jan 2, 2006 3:04:05 PM"
	neverSeen      = "Never"
)

type View struct {
	Loading        bool                         `json:"loading"`
	NodeCount      int                          `json:"node_count"`
	Nodes          []NodeView                   `json:"nodes"`
	SelectedNodeID string                       `json:"selected_node_id,omitempty"`
	Selected       *NodeCard                    `json:"selected,omitempty"`
	History        []domain.Reading             `json:"history"`
	Alerts         []domain.Alert               `json:"alerts"`
	Notification   *domain.NewNodeNotification  `json:"notification,omitempty"`
	Notifications  []domain.NewNodeNotification `json:"notifications"`
	UpdatedAt      time.Time                    `json:"updated_at"`
}

type NodeView struct {
	NodeID       string            `json:"node_id"`
	Name         string            `json:"name"`
	Status       domain.NodeStatus `json:"status"`
	Connection   string            `json:"connection"`
	Battery      float64           `json:"battery_percentage"`
	BatteryLevel Level             `json:"battery_level"`
	IsNew        bool              `json:"is_new"`
	Selected     bool              `json:"selected"`
}

type NodeCard struct {
	domain.Node
	DisplayName   string         `json:"display_name"`
	Connection    string         `json:"connection"`
	BatteryLevel  Level          `json:"battery_level"`
	LastSeenLabel string         `json:"last_seen_label"`
	Statuses      SensorStatuses `json:"statuses"`
}

type viewState struct {
	loading       bool
	nodes         NodeSet
	selected      string
	history       []domain.Reading
	alerts        []domain.Alert
	notifications []domain.NewNodeNotification
	loc           *time.Location
	now           time.Time
}

func buildView(s viewState) View {
	v := View{
		Loading:        s.loading,
		NodeCount:      s.nodes.Len(),
		Nodes:          make([]NodeView, 0, s.nodes.Len()),
		SelectedNodeID: s.selected,
		History:        append([]domain.Reading{}, s.history...),
		Alerts:         append([]domain.Alert{}, s.alerts...),
		Notifications:  append([]domain.NewNodeNotification{}, s.notifications...),
		UpdatedAt:      s.now,
	}

	fresh := make(map[string]bool, len(s.notifications))
	for _, n := range s.notifications {
		fresh[n.NodeID] = true
	}
	if len(s.notifications) > 0 {
		latest := s.notifications[len(s.notifications)-1]
		v.Notification = &latest
	}

	for _, node := range s.nodes.Nodes() {
		v.Nodes = append(v.Nodes, NodeView{
			NodeID:       node.NodeID,
			Name:         node.DisplayName(),
			Status:       node.Status,
			Connection:   ConnectionStatus(&node),
			Battery:      node.Latest.BatteryPercentage,
			BatteryLevel: BatteryLevel(node.Latest.BatteryPercentage),
			IsNew:        fresh[node.NodeID],
			Selected:     node.NodeID == s.selected,
		})
	}

	if node, ok := s.nodes.Get(s.selected); ok {
		v.Selected = &NodeCard{
			Node:          node,
			DisplayName:   node.DisplayName(),
			Connection:    ConnectionStatus(&node),
			BatteryLevel:  BatteryLevel(node.Latest.BatteryPercentage),
			LastSeenLabel: lastSeenLabel(node.LastSeen, s.loc),
			Statuses:      ClassifyReadings(node.Latest),
		}
	}

	return v
}

func lastSeenLabel(ts *time.Time, loc *time.Location) string {
	if ts == nil {
		return neverSeen
	}
	if loc == nil {
		loc = time.Local
	}
	return ts.In(loc).Format(lastSeenLayout)
}
