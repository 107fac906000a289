package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Endpoint       string `yaml:"endpoint"`       // intake endpoint URL, e.g. http://localhost:4000/file
	ListenPort     int    `yaml:"listenPort"`     // port of the intake server in serve mode
	FieldName      string `yaml:"fieldName"`      // multipart field carrying the file
	Throttle       string `yaml:"throttle"`       // pause before each upload, e.g. "500ms"; empty disables it
	Policy         string `yaml:"policy"`         // failure policy: resume | discard
	RequestTimeout string `yaml:"requestTimeout"` // transport timeout per request, e.g. "30s"
	MaxUploadBytes int64  `yaml:"maxUploadBytes"` // multipart memory limit of the intake server
	NotifySocket   string `yaml:"notifySocket,omitempty"`
	ControlPort    int    `yaml:"controlPort,omitempty"` // local control API port in send mode, 0 disables it
	ReceiptTTL     string `yaml:"receiptTTL"`            // how long the intake server keeps receipts
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log               string
	Mode              string // serve | send
	UseConfigPath     string
	UseEndpoint       string
	UseListenPort     int
	UseThrottle       string
	UsePolicy         string
	UseControlPort    int
	UseNotifySocket   string
	UseQRCode         bool // if true, print a QR code of the intake URL on serve.
	SkipNotify        bool // if true, skip unix socket notify.
	SkipStdinCommands bool // if true, do not read interactive commands from stdin.
	Files             []string
}
