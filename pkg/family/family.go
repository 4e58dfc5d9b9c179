package family

import (
	"strings"
	"time"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Canonical relation codes. Only these are seeded; other codes may exist as
// user-defined masters but carry no inference semantics.
const (
	CodeSpouse = "SPOUSE"
	CodeFather = "FATHER"
	CodeMother = "MOTHER"
	CodeChild  = "CHILD"
	CodeParent = "PARENT"
)

// Gender of a member. The zero value means "not recorded".
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// ParseGender accepts any casing of Male, Female or Other and the empty string.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return GenderUnset, nil
	case "male":
		return GenderMale, nil
	case "female":
		return GenderFemale, nil
	case "other":
		return GenderOther, nil
	default:
		return GenderUnset, errors.New(errors.ErrCodeInvalidRequest, "invalid gender: %q", s)
	}
}

// Member is a person recorded in the tree.
type Member struct {
	ID            int64      `json:"id" bson:"_id"`
	FirstName     string     `json:"firstName" bson:"first_name"`
	LastName      string     `json:"lastName" bson:"last_name"`
	DOB           *time.Time `json:"dob,omitempty" bson:"dob,omitempty"`
	Gender        Gender     `json:"gender,omitempty" bson:"gender,omitempty"`
	ContactNumber string     `json:"contactNumber,omitempty" bson:"contact_number,omitempty"`
	Address       string     `json:"address,omitempty" bson:"address,omitempty"`
	NativePlace   string     `json:"nativePlace,omitempty" bson:"native_place,omitempty"`
	NationalID    string     `json:"nationalId,omitempty" bson:"national_id,omitempty"`
	Notes         string     `json:"notes,omitempty" bson:"notes,omitempty"`
	ImageURL      string     `json:"imageUrl,omitempty" bson:"image_url,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time  `json:"updatedAt" bson:"updated_at"`
}

// FullName joins first and last name.
func (m Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Summary returns the compact form used in family views.
func (m Member) Summary() Summary {
	return Summary{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Gender:    m.Gender,
		DOB:       m.DOB,
		ImageURL:  m.ImageURL,
	}
}

// Validate checks the fields every stored member must carry.
func (m Member) Validate() error {
	if err := errors.ValidateName("firstName", m.FirstName); err != nil {
		return err
	}
	if err := errors.ValidateName("lastName", m.LastName); err != nil {
		return err
	}
	if _, err := ParseGender(string(m.Gender)); err != nil {
		return err
	}
	return nil
}

// Summary is the member projection embedded in family views.
type Summary struct {
	ID        int64      `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Gender    Gender     `json:"gender,omitempty"`
	DOB       *time.Time `json:"dob,omitempty"`
	ImageURL  string     `json:"imageUrl,omitempty"`
}

// RelationMaster describes a relationship type and how it mirrors.
//
// A bidirectional master mirrors A->B as B->A with the same code. Otherwise a
// non-empty InverseCode mirrors A->B as B->A with the inverse master. A master
// with neither does not mirror.
type RelationMaster struct {
	ID              int64  `json:"id" bson:"_id"`
	Code            string `json:"code" bson:"code"`
	Label           string `json:"label" bson:"label"`
	IsSpousal       bool   `json:"isSpousal" bson:"is_spousal"`
	IsParental      bool   `json:"isParental" bson:"is_parental"`
	IsBidirectional bool   `json:"isBidirectional" bson:"is_bidirectional"`
	InverseCode     string `json:"inverseCode,omitempty" bson:"inverse_code,omitempty"`
}

// Validate rejects masters whose mirroring behaviour is ambiguous.
func (r RelationMaster) Validate() error {
	if err := errors.ValidateRelationCode(r.Code); err != nil {
		return err
	}
	if strings.TrimSpace(r.Label) == "" {
		return errors.New(errors.ErrCodeInvalidRequest, "relation label cannot be empty")
	}
	if r.InverseCode != "" {
		if err := errors.ValidateRelationCode(r.InverseCode); err != nil {
			return err
		}
		if r.IsBidirectional && r.InverseCode != r.Code {
			return errors.New(errors.ErrCodeInvalidRequest,
				"relation %s cannot be bidirectional and have inverse %s", r.Code, r.InverseCode)
		}
	}
	return nil
}

// Edge is a directed, typed relationship record.
type Edge struct {
	ID           int64 `json:"id" bson:"_id"`
	FromMemberID int64 `json:"fromMemberId" bson:"from_member_id"`
	ToMemberID   int64 `json:"toMemberId" bson:"to_member_id"`
	RelationID   int64 `json:"relationId" bson:"relation_id"`
}

// ResolvedEdge is an edge joined with its relation master.
type ResolvedEdge struct {
	Edge
	Relation RelationMaster `json:"relation"`
}

// Code returns the relation code of the edge.
func (e ResolvedEdge) Code() string { return e.Relation.Code }

// IsParentCode reports whether code marks the source as parent of the target.
func IsParentCode(code string) bool {
	return code == CodeFather || code == CodeMother
}

// DefaultMasters returns the relation masters installed by seeding.
//
// CHILD points at PARENT, which is not seeded: creating a CHILD edge therefore
// creates no mirror.
func DefaultMasters() []RelationMaster {
	return []RelationMaster{
		{Code: CodeSpouse, Label: "Spouse", IsSpousal: true, IsBidirectional: true},
		{Code: CodeFather, Label: "Father", IsParental: true, InverseCode: CodeChild},
		{Code: CodeMother, Label: "Mother", IsParental: true, InverseCode: CodeChild},
		{Code: CodeChild, Label: "Child", InverseCode: CodeParent},
	}
}

// View is the inferred family of one member. Each list is de-duplicated and
// ordered by first discovery.
type View struct {
	Spouses  []Summary `json:"spouses"`
	Children []Summary `json:"children"`
	Parents  []Summary `json:"parents"`
}

// WithFamily is a member decorated with its inferred family.
type WithFamily struct {
	Member
	View
}
