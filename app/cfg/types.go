package cfg

type Cfg struct {
	// Storage
	DBPath string

	// Application configuration
	SourcesDir        string
	Port              string
	BaseUrl           string
	SchedulerInterval int
	FetchTimeout      int
	FetchWindow       int
	RetentionDays     int
	InsecureTLS       bool
	RateLimit         float64
	RateBurst         int

	// Diagnostics log
	LogDir   string
	LogForce bool

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
