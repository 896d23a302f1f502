package engine

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docshelf/internal/config"
	"docshelf/internal/domain"
	"docshelf/internal/domain/models"
)

var nameRe = regexp.MustCompile(`^[^/]+$`)

// CreateFolderRequest describes a new folder. ParentID nil creates it at
// the top level of the forest.
type CreateFolderRequest struct {
	ParentID    *string            `json:"parent_id"`
	Name        string             `json:"name"`
	AccessLevel models.AccessLevel `json:"access_level"`
	Tags        []string           `json:"tags"`
	Expanded    bool               `json:"expanded"`
}

func (r *CreateFolderRequest) validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
			validation.Match(nameRe).Error("name cannot contain slashes"),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return validateTags(r.Tags)
}

// CreateDocumentRequest describes a new document. The metadata map is
// opaque to the engine and typically carries the byte-storage reference.
type CreateDocumentRequest struct {
	ParentID    *string            `json:"parent_id"`
	Name        string             `json:"name"`
	FileType    string             `json:"file_type"`
	ByteSize    int64              `json:"byte_size"`
	AccessLevel models.AccessLevel `json:"access_level"`
	Tags        []string           `json:"tags"`
	Metadata    map[string]any     `json:"metadata"`
}

func (r *CreateDocumentRequest) validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Name,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
			validation.Match(nameRe).Error("name cannot contain slashes"),
		),
		validation.Field(&r.ByteSize, validation.Min(int64(0))),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	for k := range r.Metadata {
		if k == "" {
			return fmt.Errorf("%w: metadata keys must be non-empty", domain.ErrInvalidMetadata)
		}
	}
	return validateTags(r.Tags)
}

func validateName(name string) error {
	err := validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxNodeNameLength),
		validation.Match(nameRe).Error("name cannot contain slashes"),
	)
	if err != nil {
		return fmt.Errorf("%w: name: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateTag(tag string) error {
	err := validation.Validate(tag,
		validation.Required,
		validation.Length(1, config.MaxTagLength),
	)
	if err != nil {
		return fmt.Errorf("%w: tag: %v", domain.ErrValidation, err)
	}
	return nil
}

func validateTags(tags []string) error {
	if len(tags) > config.MaxTagsPerNode {
		return fmt.Errorf("%w: at most %d tags per node", domain.ErrValidation, config.MaxTagsPerNode)
	}
	for _, t := range tags {
		if err := validateTag(t); err != nil {
			return err
		}
	}
	return nil
}

// resolveAccessLevel applies the configured default for an omitted level
// and rejects values outside the enum.
func (e *Engine) resolveAccessLevel(level models.AccessLevel) (models.AccessLevel, error) {
	if level == "" {
		return e.defaultAccess, nil
	}
	if !level.Valid() {
		return "", fmt.Errorf("access level %q: %w", level, domain.ErrInvalidAccessLevel)
	}
	return level, nil
}
