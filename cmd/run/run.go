package run

import (
	"mapletap/internal/conf"
	"mapletap/internal/flog"

	"github.com/spf13/cobra"
)

var (
	confPath    string
	readPath    string
	logLevel    string
	ports       []int
	networks    []string
	showIgnored bool
)

func init() {
	Cmd.Flags().StringVarP(&confPath, "config", "c", "", "Path to the configuration file.")
	Cmd.Flags().StringVarP(&readPath, "read", "r", "", "Capture file to decode (pcap or pcapng).")
	Cmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level: debug, info, warn, error, none.")
	Cmd.Flags().IntSliceVarP(&ports, "port", "p", nil, "Only follow connections on these TCP ports.")
	Cmd.Flags().StringSliceVarP(&networks, "network", "n", nil, "Only follow connections with an endpoint in these CIDR prefixes.")
	Cmd.Flags().BoolVar(&showIgnored, "show-ignored", false, "List packets whose definition is marked ignored.")
}

var Cmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode the MapleStory sessions of a capture file.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConf(cmd)
		if err != nil {
			flog.Fatalf("Failed to load configuration: %v", err)
		}
		flog.SetLevel(cfg.Log.Level)

		startDecode(cfg)
	},
}

// loadConf reads the optional config file and applies the flags set on the
// command line on top of it.
func loadConf(cmd *cobra.Command) (*conf.Conf, error) {
	cfg := &conf.Conf{}
	if confPath != "" {
		var err error
		if cfg, err = conf.LoadFromFile(confPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("read") {
		cfg.Capture.File = readPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level_ = logLevel
	}
	if flags.Changed("port") {
		cfg.Capture.Ports = ports
	}
	if flags.Changed("network") {
		cfg.Capture.Networks = networks
	}
	if flags.Changed("show-ignored") {
		cfg.Definitions.ShowIgnored = showIgnored
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}
