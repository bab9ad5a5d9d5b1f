package dashboard

import "sprouthub/pkg/domain"

func NodesQuery() domain.Query {
	return domain.Query{Collection: domain.CollectionNodes}
}

func ActiveAlertsQuery(limit int) domain.Query {
	return domain.Query{
		Collection: domain.CollectionAlerts,
		Filters:    []domain.Filter{{Field: domain.FieldStatus, Value: domain.AlertStatusActive}},
		OrderBy:    domain.FieldCreatedAt,
		Direction:  domain.Descending,
		Limit:      limit,
	}
}

func HistoryCollection(nodeID string) string {
	return domain.CollectionReadings + "/" + nodeID + "/" + domain.HistorySubpath
}

func HistoryQuery(nodeID string, limit int) domain.Query {
	return domain.Query{
		Collection: HistoryCollection(nodeID),
		OrderBy:    domain.FieldTimestamp,
		Direction:  domain.Descending,
		Limit:      limit,
	}
}
