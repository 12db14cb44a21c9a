// Command vncdisplay serves a static background picture, optionally
// overlaid with a cursor sprite, to any RFC 6143 RFB client.
package main

import (
	"flag"
	"net"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	vnc "github.com/sorz/vncdisplay"
)

const defaultListenAddr = "[::]:5900"
const defaultDesktopName = "VNC Display"

func main() {
	var (
		listenAddr  string
		background  string
		pointer     string
		desktopName string
	)

	root := &cobra.Command{
		Use:   "vncdisplay",
		Short: "Serve a static picture over the RFB (VNC) protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(listenAddr, background, pointer, desktopName)
		},
	}
	root.Flags().StringVarP(&listenAddr, "listen", "l", defaultListenAddr, "TCP address to listen on")
	root.Flags().StringVarP(&background, "background", "b", "", "background picture (required)")
	root.Flags().StringVarP(&pointer, "pointer", "p", "", "pointer (cursor) picture, optional")
	root.Flags().StringVarP(&desktopName, "name", "n", defaultDesktopName, "desktop name advertised to clients")
	root.MarkFlagRequired("background")

	// glog reads its verbosity/output flags (-v, -logtostderr, ...) off the
	// standard flag.CommandLine; bridge that into Cobra's pflag set so
	// "vncdisplay -v=2 ..." works without a second, separate flag parse.
	root.Flags().AddGoFlagSet(flag.CommandLine)
	pflag.CommandLine = root.Flags()

	if err := root.Execute(); err != nil {
		glog.Exit(err)
	}
}

func run(listenAddr, background, pointer, desktopName string) error {
	defer glog.Flush()

	screen, err := vnc.NewScreen(background, pointer)
	if err != nil {
		glog.Errorf("vncdisplay: %v", err)
		os.Exit(1)
	}

	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		glog.Errorf("vncdisplay: listen on %s: %v", listenAddr, err)
		os.Exit(1)
	}

	server := vnc.NewServer(ln, screen, desktopName)
	return server.Serve()
}
