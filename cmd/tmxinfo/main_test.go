package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/milk9111/tiledmap/config"
)

const testTMX = `<map orientation="orthogonal" width="4" height="2" tilewidth="8" tileheight="8">
 <tileset firstgid="1" name="tiles" tilewidth="8" tileheight="8" tilecount="4" columns="2">
  <image source="tiles.png" width="16" height="16"/>
 </tileset>
 <layer id="1" name="ground" width="4" height="2"><data encoding="csv">1,2,0,0,
0,0,3,4</data></layer>
 <objectgroup id="2" name="things">
  <object id="7" name="door" type="exit" x="0" y="0" width="16" height="8">
   <properties><property name="target" value="level2"/></properties>
  </object>
 </objectgroup>
</map>`

func TestPrintMap(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "level.tmx")
	if err := os.WriteFile(p, []byte(testTMX), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := loadMap(p, config.Default().MapOptions())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		objects bool
		want    []string
		absent  []string
	}{
		{"with objects", true, []string{"tiles", "tiles.png", "ground", "things", "door", "exit", "target=level2"}, nil},
		{"without objects", false, []string{"ground"}, []string{"door"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := printMap(&buf, m, tc.objects); err != nil {
				t.Fatal(err)
			}
			out := buf.String()
			for _, s := range tc.want {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
			for _, s := range tc.absent {
				if strings.Contains(out, s) {
					t.Errorf("output should not contain %q", s)
				}
			}
		})
	}
}

func TestLoadMapMissing(t *testing.T) {
	if _, err := loadMap(filepath.Join(t.TempDir(), "nope.tmx"), config.Default().MapOptions()); err == nil {
		t.Fatalf("expected an error for a missing map")
	}
}
