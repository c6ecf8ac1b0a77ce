package tasks

import (
	"fmt"
	"strings"

	"github.com/zp-innovation/mcp-task-master-sub000/pkg/taskerr"
)

// --- Tag lifecycle ---
//
// Tags are namespace partitions, so every operation here enforces name
// uniqueness and keeps partitions structurally independent: clone and copy
// are deep copies, and none of these touch the current-tag pointer — that
// lives in State and is only moved by an explicit "use".

// ValidateTagName rejects names that cannot round-trip through the store
// file or a task reference.
func ValidateTagName(name string) error {
	if strings.TrimSpace(name) == "" {
		return taskerr.Errorf(taskerr.Validation, "tag name is required")
	}
	for _, r := range name {
		valid := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_'
		if !valid {
			return taskerr.Errorf(taskerr.Validation,
				"invalid tag name %q: only letters, digits, hyphens, and underscores are allowed", name)
		}
	}
	return nil
}

// CreateTag adds a new empty tag, or a deep copy of cloneFrom when given.
func CreateTag(col Collection, name, cloneFrom, description string) error {
	if err := ValidateTagName(name); err != nil {
		return err
	}
	if _, exists := col[name]; exists {
		return taskerr.Errorf(taskerr.Conflict, "tag %q already exists", name)
	}

	now := nowRFC3339()
	if cloneFrom != "" {
		src, ok := col[cloneFrom]
		if !ok {
			return taskerr.Errorf(taskerr.NotFound, "source tag %q does not exist", cloneFrom)
		}
		tag := src.Clone()
		tag.Metadata = TagMetadata{Created: now, Updated: now, Description: description}
		if description == "" {
			tag.Metadata.Description = fmt.Sprintf("Cloned from %q", cloneFrom)
		}
		col[name] = tag
		return nil
	}

	col[name] = &TagData{
		Tasks:    []Task{},
		Metadata: TagMetadata{Created: now, Updated: now, Description: description},
	}
	return nil
}

// RenameTag renames a tag in place. The master tag cannot be renamed away:
// it is the migration target and the resolver fallback.
func RenameTag(col Collection, oldName, newName string) error {
	if oldName == DefaultTag {
		return taskerr.Errorf(taskerr.Validation, "the %q tag cannot be renamed", DefaultTag)
	}
	if err := ValidateTagName(newName); err != nil {
		return err
	}
	tag, ok := col[oldName]
	if !ok {
		return taskerr.Errorf(taskerr.NotFound, "tag %q does not exist", oldName)
	}
	if _, exists := col[newName]; exists {
		return taskerr.Errorf(taskerr.Conflict, "tag %q already exists", newName)
	}
	delete(col, oldName)
	tag.Metadata.Updated = nowRFC3339()
	col[newName] = tag
	return nil
}

// CopyTag deep-copies src into a new tag dst.
func CopyTag(col Collection, src, dst string) error {
	if err := ValidateTagName(dst); err != nil {
		return err
	}
	srcTag, ok := col[src]
	if !ok {
		return taskerr.Errorf(taskerr.NotFound, "tag %q does not exist", src)
	}
	if _, exists := col[dst]; exists {
		return taskerr.Errorf(taskerr.Conflict, "tag %q already exists", dst)
	}
	now := nowRFC3339()
	tag := srcTag.Clone()
	tag.Metadata = TagMetadata{
		Created:     now,
		Updated:     now,
		Description: fmt.Sprintf("Copied from %q", src),
	}
	col[dst] = tag
	return nil
}

// DeleteTag destroys a tag and every task it owns. Irreversible.
// The master tag cannot be deleted.
func DeleteTag(col Collection, name string) error {
	if name == DefaultTag {
		return taskerr.Errorf(taskerr.Validation, "the %q tag cannot be deleted", DefaultTag)
	}
	if _, ok := col[name]; !ok {
		return taskerr.Errorf(taskerr.NotFound, "tag %q does not exist", name)
	}
	delete(col, name)
	return nil
}

// UseTag records name as the current tag in state. The tag must exist.
func UseTag(col Collection, st *State, name string) error {
	if _, ok := col[name]; !ok {
		return taskerr.Errorf(taskerr.NotFound, "tag %q does not exist", name)
	}
	st.CurrentTag = name
	st.LastSwitched = nowRFC3339()
	return nil
}
