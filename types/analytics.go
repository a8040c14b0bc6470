package types

// LabelCount is one bucket of a grouped count.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// JobAnalytics summarises job postings.
type JobAnalytics struct {
	TotalJobs       int          `json:"total_jobs"`
	ActiveJobs      int          `json:"active_jobs"`
	JobsThisMonth   int          `json:"jobs_this_month"`
	TopCompanies    []LabelCount `json:"top_companies"`
	EmploymentTypes []LabelCount `json:"employment_types"`
}

// ApplicationAnalytics summarises applications. ConversionRate is the
// percentage of applications that were accepted.
type ApplicationAnalytics struct {
	TotalApplications     int          `json:"total_applications"`
	ApplicationsThisMonth int          `json:"applications_this_month"`
	ConversionRate        float64      `json:"conversion_rate"`
	StatusBreakdown       []LabelCount `json:"status_breakdown"`
}

// UserAnalytics summarises accounts.
type UserAnalytics struct {
	TotalUsers        int          `json:"total_users"`
	ActiveUsers       int          `json:"active_users"`
	NewUsersThisMonth int          `json:"new_users_this_month"`
	UserTypes         []LabelCount `json:"user_types"`
	AuthProviders     []LabelCount `json:"auth_providers"`
}
