// Package chat implements the assistant pipeline: input guardrails, findings
// context assembly, the generative backend call, and output sanitization.
package chat

import (
	"strings"

	regexp "github.com/wasilibs/go-re2"
)

// GuardrailResult reports whether an input may reach the backend. When
// blocked, Refusal carries the fixed message returned in place of a reply.
type GuardrailResult struct {
	Allowed bool
	Reason  string
	Refusal string
}

// guardPattern blocks on Match unless Exempt also matches; Exempt carries
// the on-topic phrasings (aws/cloud/ops personas) that look like hijacks
// but are not.
type guardPattern struct {
	Match  *regexp.Regexp
	Exempt *regexp.Regexp
	Reason string
}

const (
	reasonPromptOverride     = "Prompt override attempt detected"
	reasonRolePlay           = "Role-play attempt detected"
	reasonModeSwitch         = "Mode switch attempt detected"
	reasonPromptExtraction   = "System prompt extraction attempt"
	reasonDelimiterInjection = "Delimiter injection detected"
	reasonEncodingEvasion    = "Encoding evasion attempt"
	reasonHarmfulContent     = "Harmful content request"
	reasonMalwareRequest     = "Malware generation request"
	reasonSocialEngineering  = "Social engineering content request"
	reasonCredentialRequest  = "Credential extraction attempt"
	reasonPIIRequest         = "PII request blocked"
)

var injectionPatterns = []guardPattern{
	{
		Match:  regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above|earlier)\s+(instructions|rules|prompts|directions|context)`),
		Reason: reasonPromptOverride,
	},
	{
		Match:  regexp.MustCompile(`(?i)disregard\s+(all\s+)?(previous|prior|above|your)\s+(instructions|rules|prompts|guidelines)`),
		Reason: reasonPromptOverride,
	},
	{
		Match:  regexp.MustCompile(`(?i)forget\s+(all\s+)?(previous|prior|above|your)\s+.{0,20}(instructions|rules|context|prompts)`),
		Reason: reasonPromptOverride,
	},
	{
		Match:  regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|the)\s+`),
		Exempt: regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|the)\s+(aws|cloud|ops)`),
		Reason: reasonRolePlay,
	},
	{
		Match:  regexp.MustCompile(`(?i)act\s+as\s+(a|an|if\s+you\s+were)\s+`),
		Exempt: regexp.MustCompile(`(?i)act\s+as\s+(a|an|if\s+you\s+were)\s+(aws|cloud|ops)`),
		Reason: reasonRolePlay,
	},
	{
		Match:  regexp.MustCompile(`(?i)pretend\s+(to\s+be|you\s+are)`),
		Reason: reasonRolePlay,
	},
	{
		Match:  regexp.MustCompile(`(?i)switch\s+to\s+.{0,20}\s*mode`),
		Reason: reasonModeSwitch,
	},
	{
		Match:  regexp.MustCompile(`(?i)(show|reveal|print|display|output|repeat|tell)\s+(me\s+)?(your|the)\s+(system\s+prompt|instructions|rules|initial\s+prompt|hidden\s+(prompt|instructions))`),
		Reason: reasonPromptExtraction,
	},
	{
		Match:  regexp.MustCompile(`(?i)what\s+(are|is)\s+your\s+(system\s+prompt|instructions|initial\s+prompt|hidden\s+instructions|rules\s+and\s+guidelines)`),
		Reason: reasonPromptExtraction,
	},
	{
		Match:  regexp.MustCompile(`<\|?(system|assistant|endoftext|im_start|im_end)\|?>`),
		Reason: reasonDelimiterInjection,
	},
	{
		Match:  regexp.MustCompile(`\[INST\]|\[/INST\]|<<SYS>>|<</SYS>>`),
		Reason: reasonDelimiterInjection,
	},
	{
		Match:  regexp.MustCompile(`(?i)(decode|execute|eval|run)\s+(this|the\s+following)\s+(base64|encoded|hex)`),
		Reason: reasonEncodingEvasion,
	},
}

var topicPatterns = []guardPattern{
	{
		Match:  regexp.MustCompile(`(?i)how\s+to\s+(hack|exploit|attack|breach|compromise|penetrate)\s+`),
		Reason: reasonHarmfulContent,
	},
	{
		Match:  regexp.MustCompile(`(?i)(write|generate|create)\s+(a\s+)?(malware|virus|exploit|ransomware|keylogger|trojan)`),
		Reason: reasonMalwareRequest,
	},
	{
		Match:  regexp.MustCompile(`(?i)(write|generate|create)\s+.{0,30}(phishing|spam|scam)`),
		Reason: reasonSocialEngineering,
	},
	{
		Match:  regexp.MustCompile(`(?i)(show|give|list|display)\s+(me\s+)?(all\s+)?(the\s+)?(aws\s+)?(credentials|secrets|passwords|access\s+keys|secret\s+keys)`),
		Reason: reasonCredentialRequest,
	},
	{
		Match:  regexp.MustCompile(`(?i)(what\s+is|show\s+me)\s+(the\s+)?(aws_secret|aws_access|secret_key|password)`),
		Reason: reasonCredentialRequest,
	},
	{
		Match:  regexp.MustCompile(`(?i)(show|give|list|find)\s+(me\s+)?(employee|user|customer)\s+(names|emails|phone|address|ssn|social\s+security)`),
		Reason: reasonPIIRequest,
	},
}

var refusals = map[string]string{
	reasonPromptOverride: "I'm the cloud operations assistant and I stay focused on helping " +
		"with cloud operations. I can't change my role, but I'm happy to help with your " +
		"infrastructure, scan findings, or remediation questions.",
	reasonRolePlay: "I appreciate the creativity, but I'm purpose-built for cloud operations. " +
		"Ask me about your scan findings, cost optimization, or security posture and I'll " +
		"give you a solid answer.",
	reasonModeSwitch: "I operate in one mode: helping you with cloud operations. " +
		"What can I help you with?",
	reasonPromptExtraction: "I can't share my internal configuration, but I can tell you what " +
		"I do: I analyze your scan findings, help prioritize fixes, guide remediation, and " +
		"answer cloud questions. What can I help you with?",
	reasonDelimiterInjection: "That input format isn't supported. Try asking a plain question " +
		"about your environment or scan findings.",
	reasonEncodingEvasion: "That input format isn't supported. Ask me a plain question about " +
		"your environment.",
	reasonHarmfulContent: "I'm here to help secure and optimize your environment, not to " +
		"assist with offensive activities. I can help you find and fix security weaknesses " +
		"in your own infrastructure through the security-posture skill.",
	reasonMalwareRequest: "I can't help with that. I'm focused on protecting your " +
		"infrastructure. If you're concerned about malware, I can help you review your " +
		"security posture findings.",
	reasonSocialEngineering: "I can't assist with that. If you're concerned about phishing " +
		"targeting your organization, I can help review your access key hygiene instead.",
	reasonCredentialRequest: "I don't have access to your credentials and wouldn't share them " +
		"if I did. If you're concerned about credential security, run the security-posture " +
		"skill to check for old access keys.",
	reasonPIIRequest: "I don't have access to personal information and can't help with PII " +
		"requests. I work with infrastructure data: resource IDs, configurations, and scan " +
		"findings.",
}

const defaultRefusal = "I can't process that request. I'm here to help with cloud " +
	"operations: scan findings, cost optimization, security, and infrastructure questions."

func checkPatterns(message string, patterns []guardPattern) GuardrailResult {
	for _, p := range patterns {
		if !p.Match.MatchString(message) {
			continue
		}
		if p.Exempt != nil && p.Exempt.MatchString(message) {
			continue
		}
		refusal, ok := refusals[p.Reason]
		if !ok {
			refusal = defaultRefusal
		}
		return GuardrailResult{Reason: p.Reason, Refusal: refusal}
	}
	return GuardrailResult{Allowed: true}
}

// applyGuardrails runs injection detection then topic boundaries; either
// match short-circuits and the backend is never called.
func applyGuardrails(message string) GuardrailResult {
	if result := checkPatterns(message, injectionPatterns); !result.Allowed {
		return result
	}
	return checkPatterns(message, topicPatterns)
}

var outputScrubs = []struct {
	Pattern     *regexp.Regexp
	Replacement string
}{
	{regexp.MustCompile(`(?i)(my\s+)?system\s+prompt\s+(is|says|reads|contains|instructs)[\s:]+.{20,}`), "[content filtered]"},
	{regexp.MustCompile(`(?i)my\s+(initial\s+)?instructions\s+(are|say|read)[\s:]+.{20,}`), "[content filtered]"},
	{regexp.MustCompile(`(?i)here\s+(is|are)\s+my\s+(system\s+)?instructions[\s:]+.{20,}`), "[content filtered]"},
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "[ACCESS_KEY_REDACTED]"},
}

// sanitizeOutput scrubs backend replies for leaked prompt fragments and
// access-key-shaped substrings before they reach the caller.
func sanitizeOutput(response string) string {
	for _, s := range outputScrubs {
		response = s.Pattern.ReplaceAllString(response, s.Replacement)
	}
	return response
}

// stripControlChars removes control characters except newline and tab.
func stripControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
