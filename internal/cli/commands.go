package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/aligator/fatstream"
	"github.com/aligator/fatstream/fat"
	"github.com/aligator/fatstream/internal/log"
	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"
	"golang.org/x/term"
)

// isTerminal reports if w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func formatCommand(fs afero.Fs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format <image>",
		Short: "Create a new, empty image",
		Long:  "Create a new, empty image. The FAT type is chosen by the resulting count of clusters. An existing file is overwritten.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig(cmd)

			device, err := fs.OpenFile(args[0], os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
			if err != nil {
				return err
			}

			v, err := fat.Format(device, cfg.ImageSize, cfg.FormatOptions())
			if err != nil {
				device.Close()
				return err
			}
			defer v.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %v, %d clusters of %d bytes\n", args[0], v.Type(), v.ClusterCount(), v.ClusterSize())
			return nil
		},
	}

	cmd.Flags().Int64("size", 0, "Size of the image in bytes")
	cmd.Flags().Uint16("bytes-per-sector", 0, "512, 1024, 2048 or 4096")
	cmd.Flags().Uint8("sectors-per-cluster", 0, "Power of two, at most 32K per cluster")
	cmd.Flags().String("label", "", "Volume label, at most 11 characters")
	return cmd
}

func lsCommand(fs afero.Fs) *cobra.Command {
	return &cobra.Command{
		Use:     "ls <image>",
		Short:   "List the files of the root directory",
		Aliases: []string{"list"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVolume(fs, args[0], false)
			if err != nil {
				return err
			}
			defer v.Close()

			data := pterm.TableData{{"Name", "Size", "First cluster", "Modified"}}
			for _, e := range v.Root().Entries() {
				info := e.FileInfo()
				data = append(data, []string{
					info.Name(),
					strconv.FormatInt(info.Size(), 10),
					strconv.FormatUint(uint64(e.File().FirstCluster), 10),
					info.ModTime().Format("2006-01-02 15:04:05"),
				})
			}

			if !isTerminal(cmd.OutOrStdout()) {
				pterm.DisableStyling()
			}
			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), table)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d clusters free\n", v.FreeClusters(), v.ClusterCount())
			return nil
		},
	}
}

func catCommand(fs afero.Fs) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <image> <name>",
		Short: "Print the content of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVolume(fs, args[0], false)
			if err != nil {
				return err
			}
			defer v.Close()

			f, err := fat.NewFs(v).Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = io.Copy(cmd.OutOrStdout(), f)
			return err
		},
	}
}

func putCommand(fs afero.Fs) *cobra.Command {
	return &cobra.Command{
		Use:   "put <image> <name> [source]",
		Short: "Store a file in the image",
		Long:  "Store a file in the image. The content is read from source, which is a path on the host, or from stdin.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source io.Reader = cmd.InOrStdin()
			if len(args) == 3 {
				src, err := fs.Open(args[2])
				if err != nil {
					return err
				}
				defer src.Close()
				source = src
			}

			v, err := openVolume(fs, args[0], true)
			if err != nil {
				return err
			}
			defer v.Close()

			f, err := fat.NewFs(v).Create(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			n, err := io.Copy(f, source)
			if err != nil {
				return err
			}

			log.Info("file stored", log.Fields{
				log.FieldName: args[1],
				log.FieldSize: n,
			})
			return v.Sync()
		},
	}
}

func chainCommand(fs afero.Fs) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "chain <image> <name>",
		Short: "Print the cluster chain of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVolume(fs, args[0], false)
			if err != nil {
				return err
			}
			defer v.Close()

			e, ok := v.Root().Lookup(args[1])
			if !ok {
				return &os.PathError{Op: "chain", Path: args[1], Err: os.ErrNotExist}
			}

			// Work on a copy, nothing is written here.
			file := *e.File()
			file.Parent = nil
			stream, err := fatstream.NewStream(v, &file, raw)
			if err != nil {
				return err
			}

			chain, err := stream.Chain()
			if err != nil {
				return err
			}
			size, err := stream.EffectiveSize()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d bytes in %d clusters\n", e.Name(), size, len(chain))
			for _, cluster := range chain {
				fmt.Fprintln(out, cluster)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Ignore the recorded size and use the whole chain")
	return cmd
}

func sumCommand(fs afero.Fs) *cobra.Command {
	return &cobra.Command{
		Use:   "sum <image> <name>...",
		Short: "Print the BLAKE3 checksum of files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := openVolume(fs, args[0], false)
			if err != nil {
				return err
			}
			defer v.Close()

			vfs := fat.NewFs(v)
			hasher := blake3.New()
			for _, name := range args[1:] {
				f, err := vfs.Open(name)
				if err != nil {
					return err
				}

				hasher.Reset()
				_, err = io.Copy(hasher, f)
				f.Close()
				if err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%x  %s\n", hasher.Sum(nil), name)
			}
			return nil
		},
	}
}
