package bundle

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

// ModuleInfo is the content of Contents/Resources/moduleinfo.json. It lets
// a scanner list a module's classes without executing its code.
type ModuleInfo struct {
	Name          string              `json:"Name"`
	Version       string              `json:"Version"`
	FactoryInfo   ModuleFactoryInfo   `json:"Factory Info"`
	Compatibility []ModuleCompatEntry `json:"Compatibility,omitempty"`
	Classes       []ModuleClass       `json:"Classes"`
}

type ModuleFactoryInfo struct {
	Vendor string          `json:"Vendor"`
	URL    string          `json:"URL"`
	Email  string          `json:"E-Mail"`
	Flags  map[string]bool `json:"Flags,omitempty"`
}

type ModuleCompatEntry struct {
	New string   `json:"New"`
	Old []string `json:"Old"`
}

type ModuleClass struct {
	CID           string   `json:"CID"`
	Category      string   `json:"Category"`
	Name          string   `json:"Name"`
	Vendor        string   `json:"Vendor"`
	Version       string   `json:"Version"`
	SDKVersion    string   `json:"SDKVersion"`
	SubCategories []string `json:"Sub Categories"`
	ClassFlags    uint32   `json:"Class Flags"`
	Cardinality   int32    `json:"Cardinality"`
}

// ReadModuleInfo parses the moduleinfo.json file at path.
func ReadModuleInfo(path string) (*ModuleInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read moduleinfo: %w", err)
	}
	var info ModuleInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse moduleinfo %s: %w", path, err)
	}
	return &info, nil
}

// ClassInfos converts the class list to the form a factory reports.
func (m *ModuleInfo) ClassInfos() ([]vst3.ClassInfo, error) {
	classes := make([]vst3.ClassInfo, 0, len(m.Classes))
	for _, c := range m.Classes {
		cid, err := vst3.ParseTUID(c.CID)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", c.Name, err)
		}
		classes = append(classes, vst3.ClassInfo{
			CID:           cid,
			Cardinality:   c.Cardinality,
			Category:      c.Category,
			Name:          c.Name,
			ClassFlags:    c.ClassFlags,
			SubCategories: vst3.JoinSubCategories(c.SubCategories),
			Vendor:        c.Vendor,
			Version:       c.Version,
			SDKVersion:    c.SDKVersion,
		})
	}
	return classes, nil
}
