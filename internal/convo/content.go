package convo

import (
	"fmt"
	"strings"
)

// defaultCodeLanguage is the language tag assumed when a code payload
// does not declare one. The dominant export shape is python notebooks, so
// that is the compatibility default.
const defaultCodeLanguage = "python"

// renderContent maps one raw content payload to its normalized fragments.
// Dispatch is by content-type; unrecognized types fall through to a
// best-effort renderer that never silently drops inspectable text.
func renderContent(content *RawContent) []Fragment {
	if content == nil {
		return nil
	}

	switch content.ContentType {
	case "text", "multimodal_text":
		return renderParts(content.Parts)

	case "code":
		lang := content.Language
		if lang == "" {
			lang = defaultCodeLanguage
		}
		return []Fragment{{Kind: FragmentCode, Text: content.Text, Language: lang}}

	case "execution_output":
		if content.Text == "" {
			return nil
		}
		return []Fragment{{Kind: FragmentExecutionOutput, Text: content.Text}}

	case "tether_browsing_display":
		if content.Result == "" {
			return nil
		}
		return []Fragment{{Kind: FragmentBrowsingDisplay, Text: content.Result}}

	case "tether_quote":
		return []Fragment{{
			Kind:  FragmentBrowsingQuote,
			Text:  content.Text,
			Title: content.Title,
			URL:   content.URL,
		}}

	default:
		return renderUnknown(content)
	}
}

// renderParts flattens a text/multimodal parts array. String parts pass
// through; embedded objects become placeholder fragments that keep enough
// of the original reference (asset pointer, file name) to backlink.
func renderParts(parts []any) []Fragment {
	var out []Fragment
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}
			out = append(out, Fragment{Kind: FragmentText, Text: v})
		case map[string]any:
			if f, ok := renderObjectPart(v); ok {
				out = append(out, f)
			}
		}
	}
	return out
}

func renderObjectPart(part map[string]any) (Fragment, bool) {
	typeName, _ := part["content_type"].(string)

	switch typeName {
	case "image_asset_pointer":
		pointer, _ := part["asset_pointer"].(string)
		if pointer == "" {
			return Fragment{Kind: FragmentText, Text: "[Image]"}, true
		}
		return Fragment{Kind: FragmentText, Text: fmt.Sprintf("[Image: %s]", pointer)}, true

	case "audio_transcription":
		if text, _ := part["text"].(string); text != "" {
			return Fragment{Kind: FragmentText, Text: text}, true
		}
		return Fragment{}, false
	}

	if name, _ := part["name"].(string); name != "" {
		return Fragment{Kind: FragmentText, Text: fmt.Sprintf("[File: %s]", name)}, true
	}
	if text, _ := part["text"].(string); text != "" {
		return Fragment{Kind: FragmentText, Text: text}, true
	}
	if typeName != "" {
		return Fragment{Kind: FragmentText, Text: fmt.Sprintf("[%s]", typeName)}, true
	}
	return Fragment{}, false
}

// renderUnknown handles unrecognized content-types. It emits the raw text
// field when present, otherwise each non-empty string part, otherwise a
// single placeholder naming the unsupported type — a message is never
// reduced to zero fragments while any inspectable text exists.
func renderUnknown(content *RawContent) []Fragment {
	if content.Text != "" {
		return []Fragment{{Kind: FragmentUnknown, Text: content.Text, TypeName: content.ContentType}}
	}

	var out []Fragment
	for _, part := range content.Parts {
		if s, ok := part.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, Fragment{Kind: FragmentUnknown, Text: s, TypeName: content.ContentType})
		}
	}
	if len(out) > 0 {
		return out
	}

	return []Fragment{{
		Kind:     FragmentUnknown,
		Text:     fmt.Sprintf("[Unsupported content: %s]", content.ContentType),
		TypeName: content.ContentType,
	}}
}
