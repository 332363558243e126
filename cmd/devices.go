package cmd

import (
	"fmt"

	"github.com/AnyUserName/img2ascii-cli/internal/device"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List compute devices and their limits",
	Args:  cobra.NoArgs,
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(_ *cobra.Command, _ []string) error {
	reg := newRegistry()
	selected, err := reg.Acquire(deviceName)
	if err != nil {
		logVerbose("device selection: %v", err)
	}

	fmt.Println()
	for _, d := range reg.All() {
		mark := badMark("✗")
		if d.Available() {
			mark = okMark("✓")
		}
		suffix := ""
		if d == selected {
			suffix = "  (selected)"
		}
		l := d.Limits()
		fmt.Printf("  %s %-8s%s\n", mark, d.Name(), suffix)
		fmt.Printf("      lanes:            %d\n", l.Lanes)
		fmt.Printf("      execution width:  %d\n", l.ThreadExecutionWidth)
		fmt.Printf("      threadgroup:      %s (max %d threads)\n", threadgroupOf(l), l.MaxThreadsPerThreadgroup)
		fmt.Printf("      max texture:      %d × %d\n", l.MaxTextureSize, l.MaxTextureSize)
	}
	fmt.Println()
	fmt.Printf("  %s\n\n", reg.String())
	return err
}

func threadgroupOf(l device.Limits) string {
	if l.ThreadExecutionWidth <= 0 {
		return "n/a"
	}
	return device.Size{
		Width:  l.ThreadExecutionWidth,
		Height: l.MaxThreadsPerThreadgroup / l.ThreadExecutionWidth,
	}.String()
}
