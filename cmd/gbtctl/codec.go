package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/danmuck/gbtlink/internal/protocol"
	"github.com/danmuck/gbtlink/internal/protocol/wire"
	"github.com/spf13/cobra"
)

// readHexArg returns the first argument, or stdin when there is none or it
// is "-".
func readHexArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(b), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newDecodeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "decode [hex|-]",
		Short: "Decode one frame and print it as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			if file != "" {
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				raw = b
			} else {
				text, err := readHexArg(cmd, args)
				if err != nil {
					return err
				}
				if raw, err = protocol.ParseHex(text); err != nil {
					return err
				}
			}
			p, err := protocol.Decode(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", protocol.Kind(err), err)
			}
			return writeJSON(cmd.OutOrStdout(), protocol.ViewOf(p))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "read a binary frame from file")
	return cmd
}

func newRespondCmd() *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "respond [hex|-]",
		Short: "Build the platform reply to a request frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, ok := protocol.ParseResponse(code)
			if !ok {
				return fmt.Errorf("unknown response code %q", code)
			}
			text, err := readHexArg(cmd, args)
			if err != nil {
				return err
			}
			req, err := protocol.DecodeHex(text)
			if err != nil {
				return fmt.Errorf("%s: %w", protocol.Kind(err), err)
			}
			out, err := protocol.Respond(req, resp)
			if err != nil {
				return err
			}
			s, err := protocol.EncodeHex(out)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
			return err
		},
	}
	cmd.Flags().StringVar(&code, "code", "success", "response: success|fail|duplicate_vin")
	return cmd
}

type buildFlags struct {
	vin      string
	iccid    string
	seq      uint16
	user     string
	password string
	data     string
	at       string
}

func newBuildCmd() *cobra.Command {
	f := &buildFlags{}
	cmd := &cobra.Command{
		Use:       "build <command>",
		Short:     "Encode a terminal request frame as hex",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"vehicle_login", "vehicle_logout", "platform_login", "platform_logout", "realtime_report", "reissue_report", "heartbeat", "time"},
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := f.body(args[0])
			if err != nil {
				return err
			}
			vin, err := wire.NewFixedString[protocol.VINWidth](f.vin)
			if err != nil {
				return fmt.Errorf("vin: %w", err)
			}
			p, err := protocol.Build(protocol.Header{
				Response:   protocol.ResponseCommand,
				VIN:        vin,
				Encryption: protocol.EncryptionNone,
			}, body)
			if err != nil {
				return err
			}
			s, err := protocol.EncodeHex(p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
			return err
		},
	}
	cmd.Flags().StringVar(&f.vin, "vin", "", "vehicle identification number")
	cmd.Flags().StringVar(&f.iccid, "iccid", "", "SIM ICCID for vehicle_login")
	cmd.Flags().Uint16Var(&f.seq, "seq", 1, "login/logout serial number")
	cmd.Flags().StringVar(&f.user, "user", "", "platform_login username")
	cmd.Flags().StringVar(&f.password, "password", "", "platform_login password")
	cmd.Flags().StringVar(&f.data, "data", "", "report payload as hex")
	cmd.Flags().StringVar(&f.at, "at", "", "timestamp (RFC3339), defaults to now")
	return cmd
}

func (f *buildFlags) timestamp() (protocol.Timestamp, error) {
	if f.at == "" {
		return protocol.TimestampOf(time.Now()), nil
	}
	t, err := time.Parse(time.RFC3339, f.at)
	if err != nil {
		return protocol.Timestamp{}, fmt.Errorf("at: %w", err)
	}
	return protocol.TimestampOf(t), nil
}

func (f *buildFlags) body(name string) (protocol.Body, error) {
	at, err := f.timestamp()
	if err != nil {
		return nil, err
	}
	switch name = strings.ToLower(name); name {
	case "vehicle_login":
		iccid, err := wire.NewFixedString[protocol.ICCIDWidth](f.iccid)
		if err != nil {
			return nil, fmt.Errorf("iccid: %w", err)
		}
		return protocol.VehicleLogin{At: at, Seq: f.seq, ICCID: iccid}, nil
	case "vehicle_logout":
		return protocol.VehicleLogout{At: at, Seq: f.seq}, nil
	case "platform_login":
		user, err := wire.NewFixedString[protocol.UsernameWidth](f.user)
		if err != nil {
			return nil, fmt.Errorf("user: %w", err)
		}
		pass, err := wire.NewFixedString[protocol.PasswordWidth](f.password)
		if err != nil {
			return nil, fmt.Errorf("password: %w", err)
		}
		return protocol.PlatformLogin{At: at, Seq: f.seq, Username: user, Password: pass, Encryption: protocol.EncryptionNone}, nil
	case "platform_logout":
		return protocol.PlatformLogout{At: at, Seq: f.seq}, nil
	case "realtime_report", "reissue_report":
		data, err := protocol.ParseHex(f.data)
		if err != nil {
			return nil, err
		}
		if name == "reissue_report" {
			return protocol.ReissueReport{At: at, Data: data}, nil
		}
		return protocol.RealtimeReport{At: at, Data: data}, nil
	case "heartbeat":
		return protocol.Heartbeat{}, nil
	case "time":
		return protocol.TimeSync{}, nil
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}
