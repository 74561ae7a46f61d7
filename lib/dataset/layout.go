// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package dataset

import (
	"fmt"
	"path"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/tcgref/tcgref/lib/refdata"
)

// file is one dataset file and its content.
type file struct {
	name string
	data []byte
}

// fieldSpec describes where one field lives and how it is decoded.
type fieldSpec struct {
	field refdata.Field
	// name is a file, or a directory when extension is set.
	name      string
	extension string
	required  bool
	decode    func(files []file, update *refdata.Update) error
}

func (spec fieldSpec) isDir() bool { return spec.extension != "" }

// owns reports whether the file at name belongs to the field.
func (spec fieldSpec) owns(name string) bool {
	if !spec.isDir() {
		return name == spec.name
	}
	return path.Dir(name) == spec.name && path.Ext(name) == spec.extension
}

// layout is the dataset's file layout.
//
//	cards/*.json         babel      JSON arrays of cards, concatenated in name order
//	yard/constants.json  yard       JSON array of constants
//	systrings.json       systrings  JSON array
//	banlists/*.yaml      banlists   one banlist per file, named after the file by default
//	beta-ids.json        betaIds    JSON object, beta id to official id
//	konami-ids.json      konamiIds  JSON object, official id to region ids
//	shortcuts.jsonc      shortcuts  JSON with comments
//	pics.yaml            pics       YAML
//
// The first three are required; the rest load as empty when absent.
var layout = []fieldSpec{
	{field: refdata.FieldBabel, name: "cards", extension: ".json", required: true, decode: decodeBabel},
	{field: refdata.FieldYard, name: "yard/constants.json", required: true, decode: decodeYard},
	{field: refdata.FieldSystrings, name: "systrings.json", required: true, decode: decodeSystrings},
	{field: refdata.FieldBanlists, name: "banlists", extension: ".yaml", decode: decodeBanlists},
	{field: refdata.FieldBetaIDs, name: "beta-ids.json", decode: decodeBetaIDs},
	{field: refdata.FieldKonamiIDs, name: "konami-ids.json", decode: decodeKonamiIDs},
	{field: refdata.FieldShortcuts, name: "shortcuts.jsonc", decode: decodeShortcuts},
	{field: refdata.FieldPics, name: "pics.yaml", decode: decodePics},
}

// FieldsFor returns the fields owned by the given dataset paths.
// Paths outside the layout are ignored.
func FieldsFor(names []string) refdata.FieldSet {
	var set refdata.FieldSet
	for _, name := range names {
		name = strings.TrimPrefix(path.Clean(name), "./")
		for _, spec := range layout {
			if spec.owns(name) {
				set |= refdata.Fields(spec.field)
			}
		}
	}
	return set
}

// Directories returns the layout's directories, for watching.
func Directories() []string {
	dirs := []string{"."}
	seen := map[string]bool{".": true}
	for _, spec := range layout {
		dir := spec.name
		if !spec.isDir() {
			dir = path.Dir(spec.name)
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func decodeJSON(f file, target any) error {
	if err := json.Unmarshal(f.data, target); err != nil {
		return fmt.Errorf("decoding %s: %w", f.name, err)
	}
	return nil
}

func decodeBabel(files []file, update *refdata.Update) error {
	babel := refdata.Babel{}
	for _, f := range files {
		var cards []refdata.Card
		if err := decodeJSON(f, &cards); err != nil {
			return err
		}
		babel = append(babel, cards...)
	}
	update.Babel = &babel
	return nil
}

func decodeYard(files []file, update *refdata.Update) error {
	yard := refdata.Yard{Constants: []refdata.Constant{}}
	if len(files) == 1 {
		if err := decodeJSON(files[0], &yard.Constants); err != nil {
			return err
		}
	}
	update.Yard = &yard
	return nil
}

func decodeSystrings(files []file, update *refdata.Update) error {
	systrings := refdata.Systrings{}
	if len(files) == 1 {
		if err := decodeJSON(files[0], &systrings); err != nil {
			return err
		}
	}
	update.Systrings = &systrings
	return nil
}

func decodeBanlists(files []file, update *refdata.Update) error {
	banlists := refdata.Banlists{}
	for _, f := range files {
		var banlist refdata.Banlist
		if err := yaml.Unmarshal(f.data, &banlist); err != nil {
			return fmt.Errorf("decoding %s: %w", f.name, err)
		}
		if banlist.Name == "" {
			banlist.Name = strings.TrimSuffix(path.Base(f.name), path.Ext(f.name))
		}
		if banlist.Cards == nil {
			banlist.Cards = map[int64]int64{}
		}
		banlists = append(banlists, banlist)
	}
	update.Banlists = &banlists
	return nil
}

func decodeBetaIDs(files []file, update *refdata.Update) error {
	ids := refdata.BetaIDs{}
	if len(files) == 1 {
		if err := decodeJSON(files[0], &ids); err != nil {
			return err
		}
	}
	update.BetaIDs = &ids
	return nil
}

func decodeKonamiIDs(files []file, update *refdata.Update) error {
	ids := refdata.KonamiIDs{}
	if len(files) == 1 {
		if err := decodeJSON(files[0], &ids); err != nil {
			return err
		}
	}
	update.KonamiIDs = &ids
	return nil
}

func decodeShortcuts(files []file, update *refdata.Update) error {
	shortcuts := refdata.Shortcuts{}
	if len(files) == 1 {
		stripped := file{name: files[0].name, data: jsonc.ToJSON(files[0].data)}
		if err := decodeJSON(stripped, &shortcuts); err != nil {
			return err
		}
	}
	update.Shortcuts = &shortcuts
	return nil
}

func decodePics(files []file, update *refdata.Update) error {
	pics := refdata.Pics{Sources: map[string]string{}}
	if len(files) == 1 {
		if err := yaml.Unmarshal(files[0].data, &pics); err != nil {
			return fmt.Errorf("decoding %s: %w", files[0].name, err)
		}
	}
	update.Pics = &pics
	return nil
}
