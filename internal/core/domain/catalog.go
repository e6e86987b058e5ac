package domain

import (
	"fmt"
	"slices"
	"strings"
)

type BusinessCategory string

const (
	CategoryGrocery    BusinessCategory = "GROCERY"
	CategoryPharmacy   BusinessCategory = "PHARMACY"
	CategoryRestaurant BusinessCategory = "RESTAURANT"
	CategoryGeneral    BusinessCategory = "GENERAL"
)

var businessCategories = []BusinessCategory{
	CategoryGrocery,
	CategoryPharmacy,
	CategoryRestaurant,
	CategoryGeneral,
}

func BusinessCategories() []BusinessCategory {
	return slices.Clone(businessCategories)
}

func ParseBusinessCategory(raw string) (BusinessCategory, error) {
	c := BusinessCategory(strings.ToUpper(strings.TrimSpace(raw)))
	if !slices.Contains(businessCategories, c) {
		return "", &InvalidCategoryError{Value: raw}
	}
	return c, nil
}

type DocumentType string

const (
	DocBusinessLicense  DocumentType = "BUSINESS_LICENSE"
	DocGSTCertificate   DocumentType = "GST_CERTIFICATE"
	DocPANCard          DocumentType = "PAN_CARD"
	DocAadharCard       DocumentType = "AADHAR_CARD"
	DocBankStatement    DocumentType = "BANK_STATEMENT"
	DocAddressProof     DocumentType = "ADDRESS_PROOF"
	DocOwnerPhoto       DocumentType = "OWNER_PHOTO"
	DocShopPhoto        DocumentType = "SHOP_PHOTO"
	DocFoodLicense      DocumentType = "FOOD_LICENSE"
	DocFSSAICertificate DocumentType = "FSSAI_CERTIFICATE"
	DocDrugLicense      DocumentType = "DRUG_LICENSE"
	DocTradeLicense     DocumentType = "TRADE_LICENSE"
	DocOther            DocumentType = "OTHER"
)

var documentTypeNames = map[DocumentType]string{
	DocBusinessLicense:  "Business License",
	DocGSTCertificate:   "GST Registration Certificate",
	DocPANCard:          "PAN Card",
	DocAadharCard:       "Aadhar Card",
	DocBankStatement:    "Bank Account Statement",
	DocAddressProof:     "Address Proof",
	DocOwnerPhoto:       "Owner Photo",
	DocShopPhoto:        "Shop Photo",
	DocFoodLicense:      "Food Safety License",
	DocFSSAICertificate: "FSSAI Food Safety Certificate",
	DocDrugLicense:      "Drug License",
	DocTradeLicense:     "Trade License",
	DocOther:            "Other Document",
}

func ParseDocumentType(raw string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := documentTypeNames[t]; !ok {
		return "", WrapError(ErrInvalidInput, "parse document type", fmt.Errorf("unknown document type %q", raw))
	}
	return t, nil
}

// DisplayName returns the human readable label shown on checklists.
func (t DocumentType) DisplayName() string {
	if name, ok := documentTypeNames[t]; ok {
		return name
	}
	return string(t)
}

// DocumentTypeSet is an unordered set of document types.
type DocumentTypeSet map[DocumentType]struct{}

func NewDocumentTypeSet(types ...DocumentType) DocumentTypeSet {
	s := make(DocumentTypeSet, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

func (s DocumentTypeSet) Contains(t DocumentType) bool {
	_, ok := s[t]
	return ok
}

func (s DocumentTypeSet) Len() int {
	return len(s)
}

// Sorted returns the members in catalog declaration order.
func (s DocumentTypeSet) Sorted() []DocumentType {
	out := make([]DocumentType, 0, len(s))
	for _, t := range catalogOrder {
		if s.Contains(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s DocumentTypeSet) Union(other DocumentTypeSet) DocumentTypeSet {
	out := make(DocumentTypeSet, len(s)+len(other))
	for t := range s {
		out[t] = struct{}{}
	}
	for t := range other {
		out[t] = struct{}{}
	}
	return out
}

var catalogOrder = []DocumentType{
	DocBusinessLicense,
	DocGSTCertificate,
	DocPANCard,
	DocAadharCard,
	DocBankStatement,
	DocAddressProof,
	DocOwnerPhoto,
	DocShopPhoto,
	DocFoodLicense,
	DocFSSAICertificate,
	DocDrugLicense,
	DocTradeLicense,
	DocOther,
}

var baseRequiredTypes = []DocumentType{
	DocBusinessLicense,
	DocGSTCertificate,
	DocPANCard,
	DocAadharCard,
	DocAddressProof,
	DocOwnerPhoto,
	DocShopPhoto,
}

var categoryRequiredTypes = map[BusinessCategory][]DocumentType{
	CategoryRestaurant: {DocFoodLicense, DocFSSAICertificate},
	CategoryGrocery:    {DocFSSAICertificate},
	CategoryPharmacy:   {DocDrugLicense},
	CategoryGeneral:    {},
}

// RequirementCatalog maps a business category to the document types it must provide.
// Extras can only add to the built-in requirements.
type RequirementCatalog struct {
	extra map[BusinessCategory]DocumentTypeSet
}

func NewRequirementCatalog(extra map[BusinessCategory][]DocumentType) *RequirementCatalog {
	c := &RequirementCatalog{extra: make(map[BusinessCategory]DocumentTypeSet, len(extra))}
	for category, types := range extra {
		c.extra[category] = NewDocumentTypeSet(types...)
	}
	return c
}

// RequiredTypes returns a fresh set the caller may modify.
func (c *RequirementCatalog) RequiredTypes(category BusinessCategory) (DocumentTypeSet, error) {
	specific, ok := categoryRequiredTypes[category]
	if !ok {
		return nil, &InvalidCategoryError{Value: string(category)}
	}
	set := NewDocumentTypeSet(baseRequiredTypes...).Union(NewDocumentTypeSet(specific...))
	if c != nil {
		set = set.Union(c.extra[category])
	}
	return set, nil
}

// RequiredTypes consults the built-in catalog only.
func RequiredTypes(category BusinessCategory) (DocumentTypeSet, error) {
	var c *RequirementCatalog
	return c.RequiredTypes(category)
}
