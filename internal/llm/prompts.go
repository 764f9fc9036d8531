package llm

import (
	"fmt"
	"strings"

	"yqhp/agent-batch/pkg/types"
)

// contextualizeSystemTemplate 把完整文档作为共享前缀放进 system 消息，
// 同一批次内所有请求的前缀完全一致，便于服务端命中提示词缓存。
const contextualizeSystemTemplate = `<document>
%s
</document>`

const contextualizeUserTemplate = `Here is the chunk we want to situate within the whole document:
<chunk>
%s
</chunk>

Please give a short succinct context to situate this chunk within the overall document for the purposes of improving search retrieval of the chunk. Answer only with the succinct context and nothing else.`

// ContextualizeMessages 构建单个片段的上下文生成提示词。
func ContextualizeMessages(document, chunkText string) (system, user string) {
	system = fmt.Sprintf(contextualizeSystemTemplate, document)
	user = fmt.Sprintf(contextualizeUserTemplate, chunkText)
	return system, user
}

// securityReviewPrompt 安全视角的评审提示词
const securityReviewPrompt = `You are a Security Architect reviewing code changes for security vulnerabilities.

Your focus: SQL injection, XSS and CSRF; hardcoded credentials or secrets; insecure authentication or authorization; unsafe deserialization; missing input validation; insecure cryptographic practices; information disclosure.

Analyze the provided code diff and identify ONLY security issues. For each finding give a concise description naming the specific line or pattern. If no security issues are found, return an empty list.

Output format: a JSON array of strings, one finding per string.
Example: ["Line 23: SQL query concatenation vulnerable to injection"]`

// scaleReviewPrompt 性能与扩展性视角的评审提示词
const scaleReviewPrompt = `You are a Scalability Architect reviewing code changes for performance and scale issues.

Your focus: N+1 queries and inefficient database access; missing pagination or unbounded queries; memory leaks; inefficient algorithms; missing caching; blocking operations in concurrent contexts; race conditions and deadlocks.

Analyze the provided code diff and identify ONLY performance and scale issues, explaining the impact and the suggested optimization. If none are found, return an empty list.

Output format: a JSON array of strings, one finding per string.
Example: ["Line 12: N+1 query in loop - consider eager loading"]`

// cleanCodeReviewPrompt 可维护性视角的评审提示词
const cleanCodeReviewPrompt = `You are a Clean Code Architect reviewing code changes for maintainability and best practices.

Your focus: SOLID violations; code duplication; unclear naming; overly complex functions; missing error handling or logging; inadequate test coverage for new code.

Analyze the provided code diff and identify ONLY maintainability issues. If none are found, return an empty list.

Output format: a JSON array of strings, one finding per string.
Example: ["Function process() mixes parsing and persistence - split responsibilities"]`

// ReviewSystemPrompt 返回指定评审角色的 system 提示词。
func ReviewSystemPrompt(role types.ReviewRole) (string, error) {
	switch role {
	case types.RoleSecurity:
		return securityReviewPrompt, nil
	case types.RoleScale:
		return scaleReviewPrompt, nil
	case types.RoleCleanCode:
		return cleanCodeReviewPrompt, nil
	default:
		return "", fmt.Errorf("unknown review role: %q", role)
	}
}

// ReviewUserMessage 构建评审请求的 user 消息。
func ReviewUserMessage(diff string) string {
	return "Review the following code changes:\n\n" + diff
}

// chairpersonPrompt 综合三个评审角色结论的主持人提示词
const chairpersonPrompt = `You are the Chairperson of the Architecture Review Board synthesizing findings from three specialized reviewers: Security, Scalability and Clean Code.

Synthesize their findings into a single well-structured markdown review: organize findings by severity (Critical, High, Medium, Low); if all reviewers returned empty lists, provide an approving review; be constructive and professional; end with a clear verdict (Approved, Approved with Comments, or Changes Requested).`

// ChairpersonMessages 构建综合评审的提示词。
func ChairpersonMessages(findings []types.ReviewFindings) (system, user string) {
	var sb strings.Builder
	sb.WriteString("Reviewer findings:\n")
	for _, f := range findings {
		sb.WriteString(fmt.Sprintf("\n[%s]\n", f.Role))
		if f.Err != "" {
			sb.WriteString(fmt.Sprintf("- reviewer unavailable: %s\n", f.Err))
			continue
		}
		if len(f.Findings) == 0 {
			sb.WriteString("- no issues identified\n")
			continue
		}
		for _, finding := range f.Findings {
			sb.WriteString("- " + finding + "\n")
		}
	}
	return chairpersonPrompt, sb.String()
}
