package models

import "strings"

// ContentType is a request type bitmask used by URL rule options.
// Each type occupies exactly one bit.
type ContentType uint32

const (
	ContentTypeOther            ContentType = 1 << 0
	ContentTypeScript           ContentType = 1 << 1
	ContentTypeImage            ContentType = 1 << 2
	ContentTypeStylesheet       ContentType = 1 << 3
	ContentTypeObject           ContentType = 1 << 4
	ContentTypeSubdocument      ContentType = 1 << 5
	ContentTypeXMLHTTPRequest   ContentType = 1 << 6
	ContentTypeObjectSubrequest ContentType = 1 << 7
	ContentTypeMedia            ContentType = 1 << 8
	ContentTypeFont             ContentType = 1 << 9
	ContentTypeWebSocket        ContentType = 1 << 10
	ContentTypeWebRTC           ContentType = 1 << 11
	ContentTypeDocument         ContentType = 1 << 12

	// ContentTypeAll is the mask of a rule without content type options
	ContentTypeAll = ContentTypeOther | ContentTypeScript | ContentTypeImage |
		ContentTypeStylesheet | ContentTypeObject | ContentTypeSubdocument |
		ContentTypeXMLHTTPRequest | ContentTypeObjectSubrequest | ContentTypeMedia |
		ContentTypeFont | ContentTypeWebSocket | ContentTypeWebRTC | ContentTypeDocument
)

var contentTypeNames = map[string]ContentType{
	"other":             ContentTypeOther,
	"script":            ContentTypeScript,
	"image":             ContentTypeImage,
	"stylesheet":        ContentTypeStylesheet,
	"object":            ContentTypeObject,
	"subdocument":       ContentTypeSubdocument,
	"xmlhttprequest":    ContentTypeXMLHTTPRequest,
	"object-subrequest": ContentTypeObjectSubrequest,
	"object_subrequest": ContentTypeObjectSubrequest,
	"media":             ContentTypeMedia,
	"font":              ContentTypeFont,
	"websocket":         ContentTypeWebSocket,
	"webrtc":            ContentTypeWebRTC,
}

// ContentTypeByName maps a filter option name to its content type
func ContentTypeByName(name string) (ContentType, bool) {
	ct, ok := contentTypeNames[strings.ToLower(name)]
	return ct, ok
}

// Option is a URL rule modifier bitmask
type Option uint32

const (
	OptionElemhide Option = 1 << iota
	OptionThirdParty
	OptionGenericHide
	OptionGenericBlock
	OptionJSInject
	OptionURLBlock
	OptionContent
	OptionPopup
	OptionEmpty
	OptionMatchCase
	OptionCSP
)

const (
	// OptionsWhitelistOnly can only be set on @@ rules
	OptionsWhitelistOnly = OptionElemhide | OptionJSInject | OptionContent |
		OptionGenericHide | OptionGenericBlock
	// OptionsBlacklistOnly can only be set on blocking rules
	OptionsBlacklistOnly = OptionEmpty
	// OptionsDocumentWhitelist is what $document enables on an exception
	OptionsDocumentWhitelist = OptionElemhide | OptionURLBlock | OptionJSInject | OptionContent
	// OptionsDocumentLevel restrict a rule to the DOCUMENT content type
	OptionsDocumentLevel = OptionJSInject | OptionElemhide | OptionContent |
		OptionURLBlock | OptionPopup | OptionGenericBlock | OptionGenericHide
)
