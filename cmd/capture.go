package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/callscope/callscope/internal/pkg/capture"
	"github.com/callscope/callscope/internal/pkg/capture/pcaptypes"
	"github.com/callscope/callscope/internal/pkg/logger"
	"github.com/callscope/callscope/internal/pkg/pcap"
	"github.com/callscope/callscope/internal/pkg/signals"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture packets from devices, files or a listen socket",
	Long: `Capture packets and fan them out to the configured outputs.

Examples:
  callscope capture -i eth0                     # Live capture on eth0
  callscope capture -i eth0,eth1 -f "port 5060" # Two devices with a BPF filter
  callscope capture -r calls.pcap -w out.pcap   # Replay a file into a new capture
  callscope capture --listen 0.0.0.0:9060       # Receive packets from a remote agent`,
	RunE: runCapture,
}

var (
	captureInterfaces string
	captureFiles      string
	captureFilter     string
	captureWriteFile  string
	captureListenAddr string
)

func init() {
	captureCmd.Flags().StringVarP(&captureInterfaces, "interface", "i", "", "comma separated devices to capture from")
	captureCmd.Flags().StringVarP(&captureFiles, "read-file", "r", "", "comma separated pcap files to replay")
	captureCmd.Flags().StringVarP(&captureFilter, "filter", "f", "", "BPF filter applied to every input")
	captureCmd.Flags().StringVarP(&captureWriteFile, "write-file", "w", "", "write captured packets to this pcap file")
	captureCmd.Flags().StringVar(&captureListenAddr, "listen", "", "UDP address to receive packets from a remote agent")
	captureCmd.Flags().BoolP("promiscuous", "p", false, "capture in promiscuous mode")
	viper.BindPFlag("promiscuous", captureCmd.Flags().Lookup("promiscuous"))
}

func runCapture(cmd *cobra.Command, args []string) error {
	if captureInterfaces == "" && captureFiles == "" && captureListenAddr == "" {
		return fmt.Errorf("nothing to capture: use --interface, --read-file or --listen")
	}

	mgr := capture.NewManager(capture.ConfigFromViper())

	if captureWriteFile != "" {
		writerConfig := pcap.DefaultConfig()
		writerConfig.FilePath = captureWriteFile
		writer, err := pcap.NewWriter(writerConfig)
		if err != nil {
			return err
		}
		mgr.AddOutput(writer)
	}

	if captureInterfaces != "" {
		for _, device := range strings.Split(captureInterfaces, ",") {
			input, err := pcaptypes.NewLiveInput(strings.TrimSpace(device))
			if err != nil {
				return fmt.Errorf("opening device %s: %w", device, err)
			}
			mgr.AddInput(input)
		}
	}
	if captureFiles != "" {
		for _, path := range strings.Split(captureFiles, ",") {
			input, err := pcaptypes.NewOfflineInput(strings.TrimSpace(path))
			if err != nil {
				return fmt.Errorf("opening capture file %s: %w", path, err)
			}
			mgr.AddInput(input)
		}
	}
	if captureListenAddr != "" {
		input, err := pcaptypes.NewListenerInput(captureListenAddr)
		if err != nil {
			return fmt.Errorf("binding listen address %s: %w", captureListenAddr, err)
		}
		mgr.AddInput(input)
	}

	if captureFilter != "" {
		if err := mgr.SetFilter(captureFilter); err != nil {
			return err
		}
	}

	go func() {
		for d := range mgr.Diagnostics() {
			logger.Warn("capture output failure",
				"output", d.OutputID,
				"op", d.Op,
				"error", d.Err)
		}
	}()

	if err := mgr.Start(); err != nil {
		return err
	}
	logger.Info("capture running", "status", mgr.StatusDescription())

	waitForCapture(mgr)

	if err := mgr.Stop(); err != nil {
		return err
	}
	return mgr.Close()
}

// waitForCapture blocks until a termination signal arrives or, when every
// input is offline, until all files are replayed.
func waitForCapture(mgr *capture.Manager) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cleanup := signals.SetupHandler(ctx, cancel)
	defer cleanup()

	offlineOnly := !mgr.IsOnline()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if offlineOnly && !strings.HasSuffix(mgr.StatusDescription(), "(Loading)") {
				return
			}
		}
	}
}
