package migrations

import (
	"sort"

	"git.inkwell.blog/inkwell/inkwell/src/migration/types"
)

var All = make(map[types.MigrationVersion]types.Migration)

func registerMigration(m types.Migration) {
	if _, exists := All[m.Version()]; exists {
		panic("duplicate migration version " + m.Version().String())
	}
	All[m.Version()] = m
}

// Every registered migration version, oldest first.
func SortedVersions() []types.MigrationVersion {
	var allVersions []types.MigrationVersion
	for version := range All {
		allVersions = append(allVersions, version)
	}
	sort.Slice(allVersions, func(i, j int) bool {
		return allVersions[i].Before(allVersions[j])
	})
	return allVersions
}

func LatestVersion() types.MigrationVersion {
	versions := SortedVersions()
	if len(versions) == 0 {
		return types.MigrationVersion{}
	}
	return versions[len(versions)-1]
}
