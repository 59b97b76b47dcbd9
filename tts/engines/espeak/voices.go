package espeak

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/dgnsrekt/readaloud/tts"
)

// parseVoices reads the table printed by espeak-ng --voices:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  af              --/M      Afrikaans          gmw/af
//	 5  cmn             --/M      Chinese_(Mandarin) sit/cmn              (zh-cmn 5)(zh 5)
func parseVoices(out []byte) []tts.Voice {
	var voices []tts.Voice
	seen := make(map[string]bool)

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		lang, name := fields[1], fields[3]
		if seen[lang] {
			continue
		}
		seen[lang] = true

		// Mandarin is listed as cmn; expose the zh tag it answers to.
		for _, other := range fields[5:] {
			if tag := strings.Trim(other, "()"); strings.HasPrefix(tag, "zh") && !strings.HasPrefix(lang, "zh") {
				lang = lang + "/" + strings.Fields(tag)[0]
				break
			}
		}

		voices = append(voices, tts.Voice{
			Name:     strings.ReplaceAll(name, "_", " "),
			Language: lang,
			Handle:   fields[1],
		})
	}
	return voices
}
