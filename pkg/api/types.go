package api

// MissionSummary is the compact mission view embedded in status responses.
type MissionSummary struct {
	MissionID    string `json:"mission_id"`
	RunID        string `json:"run_id"`
	RobotID      string `json:"robot_id"`
	Waypoints    int    `json:"waypoint_count"`
	StagedUpdate bool   `json:"staged_update"`
}

// FeedPumpStats mirrors the feed pump counters for status responses.
type FeedPumpStats struct {
	Received      int64 `json:"received"`
	Processed     int64 `json:"processed"`
	Dropped       int64 `json:"dropped"`
	Errors        int64 `json:"errors"`
	QueueDepth    int   `json:"queue_depth"`
	QueueCapacity int   `json:"queue_capacity"`
}
