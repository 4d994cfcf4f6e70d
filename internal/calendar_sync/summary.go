package calendarsync

type SyncSummary struct {
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
	Window  Window `json:"window"`
}

type PullSummary struct {
	Pulled  int    `json:"pulled"`
	Skipped int    `json:"skipped"`
	Deleted int    `json:"deleted"`
	Failed  int    `json:"failed"`
	Window  Window `json:"window"`
}

type TwoWaySummary struct {
	Push *SyncSummary `json:"push"`
	Pull *PullSummary `json:"pull"`
}
