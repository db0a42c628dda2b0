package model

// QuotaSpend breaks down the units spent by one refresh cycle.
type QuotaSpend struct {
	Search int `json:"search"`
	Detail int `json:"detail"`
	Total  int `json:"total"`
}

// RefreshResult is the outcome of one refresh cycle, surfaced to operators
// by the cron and manual sync endpoints.
type RefreshResult struct {
	CycleID          string     `json:"cycleId"`
	Strategy         string     `json:"strategy"`
	ChannelsFetched  int        `json:"channelsFetched"`
	ChannelsSearched int        `json:"channelsSearched"`
	VideosChecked    int        `json:"videosChecked"`
	EventsFound      int        `json:"eventsFound"`
	EventsUpdated    int        `json:"eventsUpdated"`
	EventsRefreshed  int        `json:"eventsRefreshed"`
	EventsDeleted    int64      `json:"eventsDeleted"`
	Quota            QuotaSpend `json:"quota"`
	QuotaUsed        int        `json:"quotaUsed"`
	Errors           []string   `json:"errors"`
}
