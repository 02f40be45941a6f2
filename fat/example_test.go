package fat_test

import (
	"fmt"
	"os"

	"github.com/aligator/fatstream/fat"
	"github.com/spf13/afero"
)

func Example() {
	device, err := afero.NewMemMapFs().Create("floppy.img")
	if err != nil {
		panic(err)
	}

	v, err := fat.Format(device, 1440*1024, fat.FormatOptions{Label: "example"})
	if err != nil {
		panic(err)
	}
	fs := fat.NewFs(v)

	if err := afero.WriteFile(fs, "HELLO.TXT", []byte("Hello World"), 0644); err != nil {
		panic(err)
	}
	if err := afero.WriteFile(fs, "EMPTY", nil, 0644); err != nil {
		panic(err)
	}

	fmt.Printf("Opened volume '%v' with type %v\n", v.Label(), v.Type())

	afero.Walk(fs, "/", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		fmt.Println(path, info.IsDir(), info.Size())
		return nil
	})

	// Output:
	// Opened volume 'EXAMPLE' with type FAT12
	// / true 0
	// /EMPTY false 0
	// /HELLO.TXT false 11
}
