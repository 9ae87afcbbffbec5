// fusionctl is a one-shot command line tool for inspecting FusionEngine
// frame streams from files or hex strings.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PointOneNav/fusion-engine-client-sub001/internal/framer"
	"github.com/PointOneNav/fusion-engine-client-sub001/internal/message"
	"github.com/PointOneNav/fusion-engine-client-sub001/internal/protocol"
)

const toolVersion = "1.0.0"

var (
	decodeHex        string
	decodeMaxPayload int
	decodeShowRaw    bool
)

var rootCmd = &cobra.Command{
	Use:   "fusionctl",
	Short: "Inspect FusionEngine frame streams",
	Long: `fusionctl decodes FusionEngine framed binary streams from capture files
or hex strings and prints one line per recovered frame. Corrupt or foreign
bytes between frames are skipped, the decoder resynchronizes on the next
valid frame boundary.`,
	Version: toolVersion,
}

var decodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode a stream of concatenated frames",
	Long: `Decode a byte stream of concatenated frames from a file or from a hex
string and print a summary line per frame.

Examples:
  fusionctl decode capture.bin
  fusionctl decode --hex 2e31000a...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDecode,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fusionctl %s (protocol version %d)\n", toolVersion, protocol.ProtocolVersion)
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeHex, "hex", "",
		"decode a hex string instead of a file")
	decodeCmd.Flags().IntVar(&decodeMaxPayload, "max-payload", 0,
		"payload size ceiling in bytes (0 selects the protocol default)")
	decodeCmd.Flags().BoolVar(&decodeShowRaw, "raw", false,
		"print the verbatim frame bytes as hex")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDecode(cmd *cobra.Command, args []string) error {
	data, err := decodeInput(args)
	if err != nil {
		return err
	}

	if len(data) < protocol.HeaderSize {
		return fmt.Errorf("input is %d bytes, shorter than one %d-byte header",
			len(data), protocol.HeaderSize)
	}

	opts := framer.Options{
		MaxPayloadSize: decodeMaxPayload,
		IncludeRaw:     decodeShowRaw,
	}
	dec := framer.NewDecoder(opts)

	frames := dec.Push(data)
	for i := range frames {
		printFrame(&frames[i])
	}

	stats := dec.Stats()
	fmt.Printf("%d frame(s), %d byte(s) consumed, %d byte(s) skipped, %d CRC error(s)\n",
		stats.FramesEmitted, stats.BytesConsumed, stats.BytesSkipped, stats.CRCErrors)

	if stats.FramesEmitted == 0 {
		return fmt.Errorf("no valid frames found in %d bytes of input", len(data))
	}
	return nil
}

// decodeInput resolves the decode source: a file argument or the --hex flag.
func decodeInput(args []string) ([]byte, error) {
	if decodeHex != "" {
		if len(args) > 0 {
			return nil, fmt.Errorf("--hex and a file argument are mutually exclusive")
		}
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\t' {
				return -1
			}
			return r
		}, decodeHex)
		data, err := hex.DecodeString(cleaned)
		if err != nil {
			return nil, fmt.Errorf("invalid hex input: %w", err)
		}
		return data, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("a file argument or --hex is required")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

func printFrame(frame *framer.Frame) {
	header := frame.Header

	desc := fmt.Sprintf("type=%d", header.MessageType)
	if raw, ok := frame.Payload.(*message.Raw); ok {
		desc = fmt.Sprintf("type=%d (unrecognized, %d bytes)", raw.Type, len(raw.Bytes))
	}

	fmt.Printf("seq=%-6d source=%-6d ver=%d %s payload=%d crc=0x%08X\n",
		header.SequenceNumber, header.SourceID, header.MessageVersion,
		desc, header.PayloadSize, header.CRC)

	if decodeShowRaw && len(frame.Raw) > 0 {
		fmt.Printf("  %s\n", hex.EncodeToString(frame.Raw))
	}
}
