package transform

import (
	"fmt"

	"mapletap/internal/flog"
	"mapletap/internal/protocol/maple"

	"github.com/spf13/cobra"
)

var (
	build  uint16
	locale string
)

func init() {
	Cmd.Flags().Uint16VarP(&build, "build", "b", 0, "Client build announced in the handshake.")
	Cmd.Flags().StringVarP(&locale, "locale", "L", "Global", "Locale name or number.")
	_ = Cmd.MarkFlagRequired("build")
}

var Cmd = &cobra.Command{
	Use:   "transform",
	Short: "Show the frame transform selected for a build and locale.",
	Run: func(cmd *cobra.Command, args []string) {
		l, err := maple.ParseLocale(locale)
		if err != nil {
			flog.Fatalf("Invalid locale: %v", err)
		}
		methods, byteHeader := maple.SelectTransform(build, l)
		width := 2
		if byteHeader {
			width = 1
		}

		fmt.Printf("Locale:       %s (0x%02X)\n", l, byte(l))
		fmt.Printf("Build:        %d\n", build)
		fmt.Printf("Transform:    %s\n", methods)
		fmt.Printf("Opcode width: %d\n", width)
	},
}
