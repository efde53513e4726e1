package attach

import (
	"bufio"
	"os"
	"strings"

	"github.com/google/renameio"
)

// metadata is an ordered INI-style document: sections of key-value items,
// written in declaration order so the .metadata files diff cleanly.
type metadata []metadataSection

type metadataSection struct {
	Name  string
	Items []metadataItem
}

type metadataItem struct {
	Key, Value string
}

func (m metadata) get(section, key string) string {
	for _, sec := range m {
		if sec.Name != section {
			continue
		}
		for _, item := range sec.Items {
			if item.Key == key {
				return item.Value
			}
		}
	}
	return ""
}

func (m metadata) writeFile(path string) error {
	var sb strings.Builder
	for i, sec := range m {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString("[" + sec.Name + "]\n")
		for _, item := range sec.Items {
			sb.WriteString(item.Key + " = " + item.Value + "\n")
		}
	}
	return renameio.WriteFile(path, []byte(sb.String()), 0644)
}

func readMetadata(path string) (metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var m metadata
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";"):
		case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
			m = append(m, metadataSection{Name: line[1 : len(line)-1]})
		default:
			i := strings.IndexAny(line, "=:")
			if i < 0 || len(m) == 0 {
				continue
			}
			sec := &m[len(m)-1]
			sec.Items = append(sec.Items, metadataItem{
				Key:   strings.TrimSpace(line[:i]),
				Value: strings.TrimSpace(line[i+1:]),
			})
		}
	}
	return m, sc.Err()
}
