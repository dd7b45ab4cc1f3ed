package metadata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/feral-file/drips-indexer/internal/adapter"
	"github.com/feral-file/drips-indexer/internal/domain"
)

// ErrInvalidMetadata is returned when a document matches none of the known schema versions
var ErrInvalidMetadata = errors.New("invalid account metadata")

var validate = validator.New(validator.WithRequiredStructEnabled())

// ReceiverType is the kind of account a declared split receiver points to
type ReceiverType string

const (
	ReceiverTypeAddress    ReceiverType = "address"
	ReceiverTypeRepoDriver ReceiverType = "repoDriver"
	ReceiverTypeDripList   ReceiverType = "dripList"
)

// Source describes the repository behind a project, as declared in metadata
type Source struct {
	Forge     string `json:"forge" validate:"required,oneof=github gitlab GitHub GitLab"`
	OwnerName string `json:"ownerName" validate:"required"`
	RepoName  string `json:"repoName" validate:"required"`
	URL       string `json:"url" validate:"required,url"`
}

// DomainForge maps the declared forge to a domain.Forge
func (s Source) DomainForge() domain.Forge {
	if strings.EqualFold(s.Forge, string(domain.ForgeGitLab)) {
		return domain.ForgeGitLab
	}
	return domain.ForgeGitHub
}

// Receiver is one declared split receiver
type Receiver struct {
	Type      ReceiverType `json:"type" validate:"required,oneof=address repoDriver dripList"`
	AccountID string       `json:"accountId" validate:"required,number"`
	Weight    int64        `json:"weight"`
	Source    *Source      `json:"source,omitempty" validate:"required_if=Type repoDriver,omitempty"`
}

// SplitReceiver returns the receiver as a weighted on-chain edge, its account id in canonical decimal form
func (r Receiver) SplitReceiver() domain.SplitReceiver {
	id, err := domain.ParseAccountID(r.AccountID)
	if err != nil {
		// out of range ids are kept as declared and rejected when the splits are hashed
		id = domain.AccountID(r.AccountID)
	}
	return domain.SplitReceiver{AccountID: id, Weight: r.Weight}
}

// Describes names the account a metadata document belongs to
type Describes struct {
	Driver    string `json:"driver" validate:"required"`
	AccountID string `json:"accountId" validate:"required,number"`
}

// ProjectMetadata is the normalized metadata of a RepoDriver account
type ProjectMetadata struct {
	Version     string
	Describes   Describes
	Source      Source
	Emoji       string
	Color       string
	Description *string
	// Maintainers are address receivers, Dependencies mix address and repoDriver receivers
	Maintainers  []Receiver
	Dependencies []Receiver
}

// Receivers returns every declared receiver, maintainers first
func (m *ProjectMetadata) Receivers() []Receiver {
	out := make([]Receiver, 0, len(m.Maintainers)+len(m.Dependencies))
	out = append(out, m.Maintainers...)
	return append(out, m.Dependencies...)
}

// DripListMetadata is the normalized metadata of an NftDriver account used as a drip list
type DripListMetadata struct {
	Version     string
	Describes   Describes
	Name        *string
	Description *string
	Receivers   []Receiver
}

type projectSplits struct {
	Maintainers  []Receiver `json:"maintainers" validate:"omitempty,dive"`
	Dependencies []Receiver `json:"dependencies" validate:"omitempty,dive"`
}

// repoDriverV2 adds the top-level driver and an optional description
type repoDriverV2 struct {
	Driver      string        `json:"driver" validate:"required,eq=repo"`
	Describes   Describes     `json:"describes"`
	Source      Source        `json:"source"`
	Emoji       string        `json:"emoji" validate:"required"`
	Color       string        `json:"color" validate:"required"`
	Description *string       `json:"description"`
	Splits      projectSplits `json:"splits"`
}

type repoDriverV1 struct {
	Describes Describes     `json:"describes"`
	Source    Source        `json:"source"`
	Emoji     string        `json:"emoji" validate:"required"`
	Color     string        `json:"color" validate:"required"`
	Splits    projectSplits `json:"splits"`
}

// nftDriverV2 flags drip lists explicitly and calls the receivers recipients
type nftDriverV2 struct {
	Driver      string     `json:"driver" validate:"required,eq=nft"`
	IsDripList  bool       `json:"isDripList" validate:"required"`
	Describes   Describes  `json:"describes"`
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Recipients  []Receiver `json:"recipients" validate:"required,dive"`
}

type nftDriverV1 struct {
	Describes Describes  `json:"describes"`
	Name      *string    `json:"name"`
	Projects  []Receiver `json:"projects" validate:"required,dive"`
}

// decodeDescribing unmarshals data into v, validates it and checks the described driver
func decodeDescribing(json adapter.JSON, data []byte, v interface{}, describes *Describes, driver string) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	if err := validate.Struct(v); err != nil {
		return err
	}
	if describes.Driver != driver {
		return fmt.Errorf("describes driver %q, expected %q", describes.Driver, driver)
	}
	return nil
}

// ParseProjectMetadata parses a RepoDriver metadata document, newest schema version first
func ParseProjectMetadata(json adapter.JSON, data []byte) (*ProjectMetadata, error) {
	var v2 repoDriverV2
	errV2 := decodeDescribing(json, data, &v2, &v2.Describes, "repo")
	if errV2 == nil {
		return &ProjectMetadata{
			Version:      "v2",
			Describes:    v2.Describes,
			Source:       v2.Source,
			Emoji:        v2.Emoji,
			Color:        v2.Color,
			Description:  v2.Description,
			Maintainers:  v2.Splits.Maintainers,
			Dependencies: v2.Splits.Dependencies,
		}, nil
	}

	var v1 repoDriverV1
	errV1 := decodeDescribing(json, data, &v1, &v1.Describes, "repo")
	if errV1 == nil {
		return &ProjectMetadata{
			Version:      "v1",
			Describes:    v1.Describes,
			Source:       v1.Source,
			Emoji:        v1.Emoji,
			Color:        v1.Color,
			Maintainers:  v1.Splits.Maintainers,
			Dependencies: v1.Splits.Dependencies,
		}, nil
	}

	return nil, fmt.Errorf("%w: not a repo driver document: %w", ErrInvalidMetadata, errors.Join(errV2, errV1))
}

// ParseDripListMetadata parses an NftDriver drip list metadata document, newest schema version first
func ParseDripListMetadata(json adapter.JSON, data []byte) (*DripListMetadata, error) {
	var v2 nftDriverV2
	errV2 := decodeDescribing(json, data, &v2, &v2.Describes, "nft")
	if errV2 == nil {
		return &DripListMetadata{
			Version:     "v2",
			Describes:   v2.Describes,
			Name:        v2.Name,
			Description: v2.Description,
			Receivers:   v2.Recipients,
		}, nil
	}

	var v1 nftDriverV1
	errV1 := decodeDescribing(json, data, &v1, &v1.Describes, "nft")
	if errV1 == nil {
		return &DripListMetadata{
			Version:   "v1",
			Describes: v1.Describes,
			Name:      v1.Name,
			Receivers: v1.Projects,
		}, nil
	}

	return nil, fmt.Errorf("%w: not a drip list document: %w", ErrInvalidMetadata, errors.Join(errV2, errV1))
}
