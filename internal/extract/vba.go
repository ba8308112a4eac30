package extract

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
)

// vbaModule is one code module extracted from a VBA project.
type vbaModule struct {
	Name string
	Code string
}

// extractVBAModules reads xl/vbaProject.bin from a macro-enabled workbook
// and returns its module source code in declaration order. A workbook
// without a macro project yields no modules and no error.
func extractVBAModules(path string) ([]vbaModule, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	defer zr.Close()

	var bin []byte
	for _, f := range zr.File {
		if f.Name == "xl/vbaProject.bin" {
			rc, err := f.Open()
			if err != nil {
				return nil, fmt.Errorf("could not open vbaProject.bin: %w", err)
			}
			bin, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, fmt.Errorf("could not read vbaProject.bin: %w", err)
			}
			break
		}
	}
	if bin == nil {
		return nil, nil
	}

	return parseVBAProject(bin)
}

// parseVBAProject decodes an OLE compound file holding a VBA project.
func parseVBAProject(bin []byte) ([]vbaModule, error) {
	doc, err := mscfb.New(bytes.NewReader(bin))
	if err != nil {
		return nil, fmt.Errorf("could not parse OLE container: %w", err)
	}

	// Collect every stream under the VBA storage, keyed by stream name.
	streams := make(map[string][]byte)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if len(entry.Path) == 0 || !strings.EqualFold(entry.Path[len(entry.Path)-1], "VBA") {
			continue
		}
		data, rerr := io.ReadAll(entry)
		if rerr != nil {
			continue
		}
		streams[entry.Name] = data
	}

	dir, ok := streams["dir"]
	if !ok {
		return nil, errors.New("VBA project has no dir stream")
	}
	dirData, err := decompressContainer(dir)
	if err != nil {
		return nil, fmt.Errorf("could not decompress dir stream: %w", err)
	}

	refs, err := parseDirStream(dirData)
	if err != nil {
		return nil, err
	}

	var modules []vbaModule
	for _, ref := range refs {
		if ref.StreamName == "" {
			ref.StreamName = ref.Name
		}
		stream, ok := streams[ref.StreamName]
		if !ok {
			return nil, fmt.Errorf("module stream %q not found", ref.StreamName)
		}
		if int(ref.Offset) > len(stream) {
			return nil, fmt.Errorf("module %q offset %d beyond stream size %d", ref.Name, ref.Offset, len(stream))
		}
		code, err := decompressContainer(stream[ref.Offset:])
		if err != nil {
			return nil, fmt.Errorf("could not decompress module %q: %w", ref.Name, err)
		}
		modules = append(modules, vbaModule{Name: ref.Name, Code: string(code)})
	}

	return modules, nil
}

// moduleRef locates one module's source inside the project streams.
type moduleRef struct {
	Name       string
	StreamName string
	Offset     uint32
}

// dir stream record IDs (MS-OVBA 2.3.4.2).
const (
	recProjectVersion  = 0x0009
	recModuleName      = 0x0019
	recModuleStream    = 0x001A
	recModuleOffset    = 0x0031
	recModuleTerminate = 0x002B
	recDirTerminate    = 0x0010
)

// parseDirStream walks the decompressed dir stream records and returns the
// module references in declaration order.
func parseDirStream(data []byte) ([]moduleRef, error) {
	var (
		refs []moduleRef
		cur  *moduleRef
	)
	i := 0
	for i+6 <= len(data) {
		id := binary.LittleEndian.Uint16(data[i:])
		size := binary.LittleEndian.Uint32(data[i+2:])
		i += 6

		// PROJECTVERSION carries a fixed 6-byte payload; its size field is
		// reserved and does not describe the record.
		if id == recProjectVersion {
			size = 6
		}
		if i+int(size) > len(data) {
			return nil, fmt.Errorf("truncated dir stream record 0x%04X", id)
		}
		payload := data[i : i+int(size)]
		i += int(size)

		switch id {
		case recModuleName:
			if cur != nil {
				refs = append(refs, *cur)
			}
			cur = &moduleRef{Name: string(payload)}
		case recModuleStream:
			if cur != nil {
				cur.StreamName = string(payload)
			}
		case recModuleOffset:
			if cur != nil && len(payload) >= 4 {
				cur.Offset = binary.LittleEndian.Uint32(payload)
			}
		case recModuleTerminate:
			if cur != nil {
				refs = append(refs, *cur)
				cur = nil
			}
		case recDirTerminate:
			if cur != nil {
				refs = append(refs, *cur)
				cur = nil
			}
			return refs, nil
		}
	}
	if cur != nil {
		refs = append(refs, *cur)
	}
	return refs, nil
}
