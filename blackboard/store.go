/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

// Package blackboard implements the evidence store all extractors post their
// artifacts to. Artifacts are stored as json in a sqlite database, indexed for
// keyword search and validated against a json schema per artifact kind.
package blackboard

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/recentactivity/datamodel"
)

const blackboardVersion = 1
const applicationID = 1918985076
const discriminator = "type"

// JSONElement is a single entry in the database.
type JSONElement []byte

var (
	ErrStoreExists    = errors.New("store already exists")
	ErrStoreNotExists = errors.New("store does not exist")

	// ErrValidation is returned if an artifact or attribute is rejected.
	ErrValidation = errors.New("artifact rejected")
	// ErrPost is returned if a batch of artifacts could not be posted. No
	// artifact of the batch is stored in this case.
	ErrPost = errors.New("could not post artifacts")
)

// The Store is the blackboard of an investigation. Artifacts are created
// with NewArtifact, filled with AddAttributes and become visible to other
// readers only after PostArtifacts.
type Store struct {
	cursor *sqlite.Conn
	kinds  *kindMap
	mu     sync.Mutex

	fileIDs     map[int64]string
	files       map[string]*datamodel.File
	storedFiles map[string]bool
}

// New creates a new store.
func New(url string) (*Store, error) {
	return open(url, true)
}

// Open opens an existing store.
func Open(url string) (*Store, error) {
	return open(url, false)
}

func pragma(conn *sqlite.Conn, name string) (i int64, err error) {
	err = sqlitex.ExecTransient(conn, "PRAGMA "+name, func(stmt *sqlite.Stmt) error {
		i = stmt.ColumnInt64(0)
		return nil
	})
	return i, err
}

func setPragma(conn *sqlite.Conn, name string, i int64) error {
	return sqlitex.ExecTransient(conn, "PRAGMA "+name+" = "+fmt.Sprint(i), nil)
}

func open(url string, create bool) (*Store, error) { // nolint:gocyclo,funlen
	if url != ":memory:" {
		url = strings.TrimRight(url, "/")

		exists := true
		_, err := os.Stat(url)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			exists = false
		}

		if create && exists {
			return nil, ErrStoreExists
		}
		if !create && !exists {
			return nil, ErrStoreNotExists
		}

		if create {
			err = os.MkdirAll(path.Dir(url), 0750)
			if err != nil {
				return nil, err
			}

			log.Printf("Creating store %s", url)
			f, err := os.Create(url)
			if err != nil {
				return nil, err
			}
			f.Close() // nolint:errcheck
		}
	}

	if err := setupSchemaValidation(); err != nil {
		return nil, err
	}

	store := &Store{
		kinds:       newKindMap(),
		fileIDs:     map[int64]string{},
		files:       map[string]*datamodel.File{},
		storedFiles: map[string]bool{},
	}

	var err error
	store.cursor, err = sqlite.OpenConn(url, 0)
	if err != nil {
		return nil, err
	}

	if create || url == ":memory:" {
		err = setPragma(store.cursor, "application_id", applicationID)
		if err != nil {
			return nil, err
		}

		err = setPragma(store.cursor, "user_version", blackboardVersion)
		if err != nil {
			return nil, err
		}

		err = sqlitex.ExecTransient(store.cursor, "CREATE VIRTUAL TABLE `elements` "+
			"USING fts5(id UNINDEXED, json, insert_time UNINDEXED, tokenize=\"unicode61 tokenchars '/.'\")", nil)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	id, err := pragma(store.cursor, "application_id")
	if err != nil {
		return nil, err
	}
	if id != applicationID {
		msg := "wrong file format (application_id is %d, requires %d)"
		return nil, fmt.Errorf(msg, id, applicationID)
	}

	version, err := pragma(store.cursor, "user_version")
	if err != nil {
		return nil, err
	}
	if version != blackboardVersion {
		msg := "wrong file format (user_version is %d, requires %d)"
		return nil, fmt.Errorf(msg, version, blackboardVersion)
	}

	return store, store.setupKinds()
}

/* ################################
#   Blackboard
################################ */

// NewArtifact creates an empty artifact of the given kind for a source file.
// The artifact is not stored before it is posted.
func (store *Store) NewArtifact(kind datamodel.Kind, source *datamodel.FileHandle) (*datamodel.Artifact, error) {
	if _, ok := artifactSchemas[kind]; !ok {
		return nil, errors.Wrapf(ErrValidation, "unknown artifact kind %s", kind)
	}

	artifact := &datamodel.Artifact{
		ID:         string(kind) + "--" + uuid.New().String(),
		Type:       kind,
		Attributes: []datamodel.Attribute{},
	}

	if source != nil {
		store.mu.Lock()
		fileID, ok := store.fileIDs[source.ID]
		if !ok {
			file := datamodel.NewFile(source)
			file.ID = "file--" + uuid.New().String()
			fileID = file.ID
			store.fileIDs[source.ID] = fileID
			store.files[fileID] = file
		}
		store.mu.Unlock()

		artifact.Source = fileID
		artifact.SourceName = source.Name
	}
	return artifact, nil
}

// AddAttributes adds attributes to an artifact. The artifact is left
// unchanged if the attributes are not valid for its kind.
func (store *Store) AddAttributes(artifact *datamodel.Artifact, attributes ...datamodel.Attribute) error {
	candidate := *artifact
	candidate.Attributes = append(append([]datamodel.Attribute{}, artifact.Attributes...), attributes...)

	flaws, err := validateArtifact(&candidate)
	if err != nil {
		return errors.Wrap(err, "validation failed")
	}
	if len(flaws) > 0 {
		return errors.Wrapf(ErrValidation, "%s [%s]", artifact.ID, strings.Join(flaws, ","))
	}

	artifact.Attributes = candidate.Attributes
	return nil
}

// PostArtifacts stores a batch of artifacts. The batch is stored completely
// or not at all.
func (store *Store) PostArtifacts(artifacts []*datamodel.Artifact, moduleName string) error {
	if len(artifacts) == 0 {
		return nil
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	newFiles, err := store.post(artifacts, moduleName)
	if err != nil {
		return errors.Wrap(ErrPost, err.Error())
	}

	for _, fileID := range newFiles {
		store.storedFiles[fileID] = true
	}
	for _, artifact := range artifacts {
		artifact.Module = moduleName
		for _, attribute := range artifact.Attributes {
			store.kinds.add(string(artifact.Type), string(attribute.Type))
		}
	}
	return nil
}

func (store *Store) post(artifacts []*datamodel.Artifact, moduleName string) (newFiles []string, err error) {
	defer sqlitex.Save(store.cursor)(&err)

	now := time.Now().UTC().Format(datamodel.TimeFormat)
	for _, artifact := range artifacts {
		if artifact.Source != "" && !store.storedFiles[artifact.Source] && !contains(newFiles, artifact.Source) {
			file, ok := store.files[artifact.Source]
			if !ok {
				return nil, fmt.Errorf("unknown source %s", artifact.Source)
			}
			if err := store.insertFile(file, now); err != nil {
				return nil, err
			}
			newFiles = append(newFiles, artifact.Source)
		}

		stored := *artifact
		stored.Module = moduleName
		flaws, err := validateArtifact(&stored)
		if err != nil {
			return nil, err
		}
		if len(flaws) > 0 {
			return nil, fmt.Errorf("%s is invalid [%s]", artifact.ID, strings.Join(flaws, ","))
		}

		b, err := json.Marshal(stored)
		if err != nil {
			return nil, err
		}
		if err := store.insert(artifact.ID, b, now); err != nil {
			return nil, err
		}
	}
	return newFiles, nil
}

func (store *Store) insertFile(file *datamodel.File, now string) error {
	element, err := structToJSON(file)
	if err != nil {
		return err
	}

	flaws, err := validateFile(element)
	if err != nil {
		file.AddError(err.Error())
	}
	for _, flaw := range flaws {
		file.AddError(flaw)
	}
	if len(file.Errors) > 0 {
		element, err = structToJSON(file)
		if err != nil {
			return err
		}
	}
	return store.insert(file.ID, element, now)
}

func (store *Store) insert(id string, element []byte, now string) error {
	query := "INSERT INTO `elements` (id, json, insert_time) VALUES (?, ?, ?)"
	err := sqlitex.Exec(store.cursor, query, nil, id, string(element), now)
	if err != nil {
		return errors.Wrap(err, fmt.Sprint("could not exec statement ", query))
	}
	return nil
}

/* ################################
#   Read
################################ */

// Get retrieves a single element.
func (store *Store) Get(id string) (JSONElement, error) {
	elements, err := store.query("SELECT json FROM `elements` WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(elements) > 0 {
		return elements[0], nil
	}
	return nil, errors.New("element does not exist")
}

// Select retrieves all artifacts of the given kinds in the order they were
// posted.
func (store *Store) Select(kinds ...datamodel.Kind) ([]*datamodel.Artifact, error) {
	query := "SELECT json FROM `elements` WHERE json_extract(json, '$." + discriminator + "') != 'file'"
	var args []interface{}
	if len(kinds) > 0 {
		placeholders := make([]string, len(kinds))
		for i, kind := range kinds {
			placeholders[i] = "?"
			args = append(args, string(kind))
		}
		query = "SELECT json FROM `elements` WHERE json_extract(json, '$." + discriminator + "') IN (" +
			strings.Join(placeholders, ", ") + ")"
	}
	query += " ORDER BY rowid"

	elements, err := store.query(query, args...)
	if err != nil {
		return nil, err
	}

	artifacts := make([]*datamodel.Artifact, 0, len(elements))
	for _, element := range elements {
		artifact, err := decodeArtifact(element)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

// Search for elements via the full text index.
func (store *Store) Search(q string) ([]JSONElement, error) {
	return store.query("SELECT json FROM `elements` WHERE elements = ? ORDER BY rowid", q)
}

// All returns every element, including the source file elements.
func (store *Store) All() ([]JSONElement, error) {
	return store.query("SELECT json FROM `elements` ORDER BY rowid")
}

// Kinds returns the artifact kinds and their attribute types in the store.
func (store *Store) Kinds() map[string]map[string]bool {
	return store.kinds.all()
}

func (store *Store) query(query string, args ...interface{}) ([]JSONElement, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	elements := []JSONElement{}
	err := sqlitex.ExecTransient(store.cursor, query, func(stmt *sqlite.Stmt) error {
		elements = append(elements, JSONElement(stmt.ColumnText(0)))
		return nil
	}, args...)
	return elements, err
}

// Close creates the per kind views and closes the database.
func (store *Store) Close() error {
	if store.kinds.changed {
		if err := store.createViews(); err != nil {
			log.Printf("could not create views: %s", err)
		}
	}

	return store.cursor.Close()
}

func (store *Store) createViews() error {
	for kind, attributeTypes := range store.kinds.all() {
		err := sqlitex.ExecTransient(store.cursor, fmt.Sprintf("DROP VIEW IF EXISTS '%s'", kind), nil)
		if err != nil {
			return err
		}
		var columns []string
		for attributeType := range attributeTypes {
			columns = append(columns, fmt.Sprintf(
				"(SELECT json_extract(a.value, '$.value') FROM json_each(elements.json, '$.attributes') a "+
					"WHERE json_extract(a.value, '$.type') = '%s' LIMIT 1) as '%s'",
				attributeType, attributeType,
			))
		}
		sort.Strings(columns)
		columns = append([]string{
			"json_extract(json, '$.id') as 'id'",
			"json_extract(json, '$.source_name') as 'source_name'",
		}, columns...)
		err = sqlitex.ExecTransient(store.cursor,
			fmt.Sprintf("CREATE VIEW '%s' AS SELECT %s FROM elements WHERE json_extract(json, '$.%s') = '%s'",
				kind, strings.Join(columns, ", "), discriminator, kind),
			nil,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func isKindView(name string) bool {
	_, ok := artifactSchemas[datamodel.Kind(name)]
	return ok
}

func (store *Store) setupKinds() error {
	var views []string
	err := sqlitex.ExecTransient(store.cursor, "SELECT name FROM sqlite_master WHERE type = 'view'", func(stmt *sqlite.Stmt) error {
		if name := stmt.ColumnText(0); isKindView(name) {
			views = append(views, name)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range views {
		err = sqlitex.ExecTransient(store.cursor, fmt.Sprintf("PRAGMA table_info (\"%s\")", name), func(stmt *sqlite.Stmt) error {
			column := stmt.GetText("name")
			if column != "id" && column != "source_name" {
				store.kinds.restore(name, column)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	// files of an existing store are immutable
	return sqlitex.ExecTransient(store.cursor,
		"SELECT id FROM `elements` WHERE json_extract(json, '$.type') = 'file'",
		func(stmt *sqlite.Stmt) error {
			store.storedFiles[stmt.ColumnText(0)] = true
			return nil
		})
}

/* ################################
#   Validate
################################ */

// Validate checks the database for flaws: invalid artifacts and artifacts
// that reference a missing source file.
func (store *Store) Validate() (flaws []string, err error) {
	flaws = []string{}

	elements, err := store.All()
	if err != nil {
		return nil, err
	}

	files := map[string]bool{}
	for _, element := range elements {
		if gjson.GetBytes(element, discriminator).String() == "file" {
			files[gjson.GetBytes(element, "id").String()] = true
		}
	}

	for _, element := range elements {
		elementType := gjson.GetBytes(element, discriminator)
		if !elementType.Exists() {
			flaws = append(flaws, "element needs to have a type")
			continue
		}
		if elementType.String() == "file" {
			fileFlaws, err := validateFile(element)
			if err != nil {
				return nil, err
			}
			flaws = append(flaws, fileFlaws...)
			continue
		}

		artifact, err := decodeArtifact(element)
		if err != nil {
			flaws = append(flaws, err.Error())
			continue
		}
		artifactFlaws, err := validateArtifact(artifact)
		if err != nil {
			return nil, err
		}
		flaws = append(flaws, artifactFlaws...)
		if artifact.Source != "" && !files[artifact.Source] {
			flaws = append(flaws, fmt.Sprintf("missing source %s for %s", artifact.Source, artifact.ID))
		}
	}
	return flaws, nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
