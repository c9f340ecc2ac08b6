package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. Each key is also the English text.
const (
	MsgNotAnImage        = "Please upload an image file only"
	MsgImageLoaded       = "Image loaded"
	MsgTransformReset    = "Edits have been reset"
	MsgBackgroundRemoved = "Background removed"
	MsgBackgroundFailed  = "Failed to remove the background"
	MsgInvalidGrid       = "Rows and columns must be greater than 0"
	MsgImagesCreated     = "Created %d images"
	MsgNoImage           = "Load an image first"
	MsgProcessingFailed  = "Could not process the image"
	MsgBusy              = "Background removal is already running"
	MsgLoadPending       = "Another image is still loading"
	MsgNewImage          = "Ready for a new image"
)

var supported = []language.Tag{language.English, language.Thai}

var thai = map[string]string{
	MsgNotAnImage:        "กรุณาอัปโหลดไฟล์รูปภาพเท่านั้น",
	MsgImageLoaded:       "โหลดรูปภาพสำเร็จ",
	MsgTransformReset:    "รีเซ็ตการแก้ไขแล้ว",
	MsgBackgroundRemoved: "ลบพื้นหลังเรียบร้อย",
	MsgBackgroundFailed:  "เกิดข้อผิดพลาดในการลบพื้นหลัง",
	MsgInvalidGrid:       "จำนวนแถว/คอลัมน์ต้องมากกว่า 0",
	MsgImagesCreated:     "สร้างรูปภาพสำเร็จ %d รูป",
	MsgNoImage:           "กรุณาโหลดรูปภาพก่อน",
	MsgProcessingFailed:  "ไม่สามารถประมวลผลรูปภาพได้",
	MsgBusy:              "กำลังลบพื้นหลังอยู่",
	MsgLoadPending:       "กำลังโหลดรูปภาพอื่นอยู่",
	MsgNewImage:          "พร้อมสำหรับรูปภาพใหม่",
}

var messageCatalog = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, text := range thai {
		// SetString only fails for malformed messages, and these are constant.
		_ = b.SetString(language.Thai, key, text)
		_ = b.SetString(language.English, key, key)
	}
	return b
}

// Messages formats catalog messages in one language.
type Messages struct {
	tag     language.Tag
	printer *message.Printer
}

// NewMessages returns a formatter for lang, a BCP 47 tag such as "en" or
// "th". Unknown or malformed tags fall back to English.
func NewMessages(lang string) *Messages {
	tag := language.English
	if parsed, err := language.Parse(lang); err == nil {
		_, idx, conf := language.NewMatcher(supported).Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Messages{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(messageCatalog)),
	}
}

// Language returns the language the messages are printed in.
func (m *Messages) Language() language.Tag {
	return m.tag
}

// Sprintf formats the message registered under key.
func (m *Messages) Sprintf(key string, args ...any) string {
	return m.printer.Sprintf(key, args...)
}

// SupportedLanguages returns the tags the catalog has text for.
func SupportedLanguages() []language.Tag {
	return append([]language.Tag(nil), supported...)
}
