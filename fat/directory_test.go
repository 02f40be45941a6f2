package fat

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aligator/fatstream"
	"github.com/google/go-cmp/cmp"
)

var fixedNow = time.Date(2021, 5, 4, 13, 37, 42, 0, time.UTC)

func entryNames(d *Directory) []string {
	var names []string
	for _, e := range d.Entries() {
		names = append(names, e.Name())
	}
	return names
}

func writeFile(t *testing.T, v *Volume, e *Entry, content []byte) {
	t.Helper()

	stream, err := fatstream.NewStream(v, e.File(), false)
	if err != nil {
		t.Fatalf("NewStream() error = %v", err)
	}
	if err := stream.WriteBuffer(content, 0, len(content)); err != nil {
		t.Fatalf("WriteBuffer() error = %v", err)
	}
}

func TestDirectory_Create(t *testing.T) {
	for _, tt := range volumeSizes {
		t.Run(tt.name, func(t *testing.T) {
			v := newVolume(t, tt.size, FormatOptions{})
			root := v.Root()
			root.now = func() time.Time { return fixedNow }

			for _, name := range []string{"a.txt", "B.TXT", "readme"} {
				e, err := root.Create(name)
				if err != nil {
					t.Fatalf("Create(%q) error = %v", name, err)
				}
				if e.File().FirstCluster < 2 {
					t.Errorf("Create(%q) did not allocate a first cluster", name)
				}
				if e.File().Parent != root {
					t.Errorf("Create(%q) file has no parent", name)
				}
			}

			if _, err := root.Create("A.txt"); !errors.Is(err, ErrFileExists) {
				t.Errorf("Create() of an existing file error = %v, want %v", err, ErrFileExists)
			}
			if _, err := root.Create("invalid name.txt"); !errors.Is(err, ErrInvalidName) {
				t.Errorf("Create() of an invalid name error = %v, want %v", err, ErrInvalidName)
			}

			reopened, err := Open(v.device)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			want := []string{"A.TXT", "B.TXT", "README"}
			if diff := cmp.Diff(want, entryNames(reopened.Root())); diff != "" {
				t.Errorf("entries after reopening mismatch (-want +got):\n%s", diff)
			}

			e, ok := reopened.Root().Lookup("readme")
			if !ok {
				t.Fatalf("Lookup() did not find README")
			}
			if got := e.FileInfo().ModTime(); !got.Equal(fixedNow.Truncate(2 * time.Second)) {
				t.Errorf("ModTime() = %v, want %v", got, fixedNow)
			}
		})
	}
}

func TestDirectory_Create_full(t *testing.T) {
	v := newVolume(t, fat12Size, FormatOptions{})
	root := v.Root()

	for i := 0; i < int(v.geometry.rootEntries); i++ {
		if _, err := root.Create(fmt.Sprintf("F%d", i)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	free := v.FreeClusters()
	if _, err := root.Create("ONEMORE"); !errors.Is(err, ErrDirectoryFull) {
		t.Errorf("Create() error = %v, want %v", err, ErrDirectoryFull)
	}
	if v.FreeClusters() != free {
		t.Errorf("Create() allocated a cluster although the directory is full")
	}
}

func TestDirectory_Create_FAT32Grows(t *testing.T) {
	v := newVolume(t, fat32Size, FormatOptions{})
	root := v.Root()

	perCluster := int(v.ClusterSize()) / entrySize
	for i := 0; i < perCluster+3; i++ {
		if _, err := root.Create(fmt.Sprintf("F%d", i)); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	chain, err := v.ReadChain(0, v.geometry.rootCluster)
	if err != nil {
		t.Fatalf("ReadChain() error = %v", err)
	}
	if len(chain) != 2 {
		t.Errorf("root directory has %d clusters, want 2", len(chain))
	}

	reopened, err := Open(v.device)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := len(reopened.Root().Entries()); got != perCluster+3 {
		t.Errorf("%d entries after reopening, want %d", got, perCluster+3)
	}
}

func TestDirectory_PersistListing_keepsUnknownEntries(t *testing.T) {
	v := newVolume(t, fat16Size, FormatOptions{})

	label := EntryHeader{Attribute: AttrVolumeID}
	copy(label.Name[:], "MY VOLUME  ")
	deleted := EntryHeader{Attribute: AttrArchive}
	copy(deleted.Name[:], "\xE5OLD    TXT")
	longName := EntryHeader{Attribute: AttrLongName}
	copy(longName.Name[:], "Aa\x00b\x00c\x00d\x00e\x00")

	root := v.Root()
	root.slots = append(root.slots, label, deleted, longName)
	if err := root.PersistListing(); err != nil {
		t.Fatalf("PersistListing() error = %v", err)
	}

	reopened, err := Open(v.device)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if len(reopened.Root().Entries()) != 0 {
		t.Errorf("entries = %v, want none", entryNames(reopened.Root()))
	}

	// The deleted slot gets reused, the others are kept.
	if _, err := reopened.Root().Create("NEW.TXT"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	slots := reopened.Root().slots
	if len(slots) != 3 {
		t.Fatalf("%d slots, want 3", len(slots))
	}
	if slots[0] != label || slots[2] != longName {
		t.Errorf("unknown entries were changed: %v", slots)
	}
	if displayName(slots[1].Name) != "NEW.TXT" {
		t.Errorf("deleted slot was not reused: %v", slots)
	}
}

func TestDirectory_PersistListing_writeTime(t *testing.T) {
	v := newVolume(t, fat12Size, FormatOptions{})
	root := v.Root()

	root.now = func() time.Time { return fixedNow }
	changed, err := root.Create("CHANGED")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	unchanged, err := root.Create("SAME")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	later := fixedNow.Add(time.Hour)
	root.now = func() time.Time { return later }
	writeFile(t, v, changed, []byte("new content"))

	if got := changed.FileInfo().ModTime(); !got.Equal(later.Truncate(2 * time.Second)) {
		t.Errorf("changed ModTime() = %v, want %v", got, later)
	}
	if got := unchanged.FileInfo().ModTime(); !got.Equal(fixedNow.Truncate(2 * time.Second)) {
		t.Errorf("unchanged ModTime() = %v, want %v", got, fixedNow)
	}
	if got := changed.FileInfo().Size(); got != 11 {
		t.Errorf("Size() = %d, want 11", got)
	}
}

func TestDirectory_Truncate(t *testing.T) {
	tests := []struct {
		name         string
		size         int64
		wantClusters int
		wantErr      error
	}{
		{name: "keep a part", size: 1000, wantClusters: 2},
		{name: "to zero keeps the first cluster", size: 0, wantClusters: 1},
		{name: "same size", size: 2000, wantClusters: 4},
		{name: "grow", size: 3000, wantClusters: 4, wantErr: fatstream.ErrArgument},
		{name: "negative", size: -1, wantClusters: 4, wantErr: fatstream.ErrArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVolume(t, fat12Size, FormatOptions{})
			e, err := v.Root().Create("FILE")
			if err != nil {
				t.Fatalf("Create() error = %v", err)
			}
			writeFile(t, v, e, bytes.Repeat([]byte{1}, 2000))
			free := v.FreeClusters()

			err = v.Root().Truncate(e, tt.size)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Truncate() error = %v, wantErr %v", err, tt.wantErr)
			}

			chain, err := v.ReadChain(e.File().Size, e.File().FirstCluster)
			if err != nil {
				t.Fatalf("ReadChain() error = %v", err)
			}
			if len(chain) != tt.wantClusters {
				t.Errorf("chain has %d clusters, want %d", len(chain), tt.wantClusters)
			}
			if got := v.FreeClusters(); got != free+uint32(4-tt.wantClusters) {
				t.Errorf("FreeClusters() = %d, want %d", got, free+uint32(4-tt.wantClusters))
			}
			if tt.wantErr == nil && e.File().Size != tt.size {
				t.Errorf("size = %d, want %d", e.File().Size, tt.size)
			}
		})
	}
}
