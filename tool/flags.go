package tool

import (
	"flag"

	"github.com/moyoez/batchupload/types"
)

// SetFlags parses CLI flags and returns the override config.
// Remaining positional arguments are the files to send.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod|none")
	flag.StringVar(&cfg.Mode, "mode", "send", "run mode: serve (intake endpoint) | send (upload files)")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseEndpoint, "useEndpoint", "", "override intake endpoint URL")
	flag.IntVar(&cfg.UseListenPort, "useListenPort", 0, "override intake server port")
	flag.StringVar(&cfg.UseThrottle, "useThrottle", "", "pause before each upload, e.g. 500ms")
	flag.StringVar(&cfg.UsePolicy, "usePolicy", "", "failure policy: resume|discard")
	flag.IntVar(&cfg.UseControlPort, "useControlPort", 0, "serve the local control API on this port in send mode")
	flag.StringVar(&cfg.UseNotifySocket, "useNotifySocket", "", "unix socket receiving notifications")
	flag.BoolVar(&cfg.UseQRCode, "useQRCode", false, "print a QR code of the intake URL (serve mode)")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "if true, skip unix socket notify")
	flag.BoolVar(&cfg.SkipStdinCommands, "skipStdinCommands", false, "if true, do not read commands from stdin")
	flag.Parse()
	cfg.Files = flag.Args()
	return cfg
}
