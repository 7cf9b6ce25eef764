// Package catalog holds the built-in Struts 1.x to Spring MVC rule catalog.
package catalog

import "github.com/gnolang/tagmig/rewrite"

// Group names, in application order.
const (
	GroupHTML   = "html"
	GroupLogic  = "logic"
	GroupBean   = "bean"
	GroupTiles  = "tiles"
	GroupNested = "nested"
)

// Struts HTML tag library to Spring form tags.
//
// Prefix rules must come after the longer prefixes they would clobber
// (textarea before text, options before option).
var htmlRules = []rewrite.Rule{
	{Name: "html-open", Pattern: `<html:html>`, Replacement: `<html>`},
	{Name: "html-close", Pattern: `</html:html>`, Replacement: `</html>`},
	{Name: "base", Pattern: `<html:base>`, Replacement: `<base href="${pageContext.request.contextPath}">`},
	{Name: "form-open", Pattern: `<html:form`, Replacement: `<form:form`},
	{Name: "form-close", Pattern: `</html:form>`, Replacement: `</form:form>`},
	{Name: "textarea", Pattern: `<html:textarea`, Replacement: `<form:textarea`},
	{Name: "text", Pattern: `<html:text`, Replacement: `<form:input`},
	{Name: "password", Pattern: `<html:password`, Replacement: `<form:password`},
	{Name: "checkbox", Pattern: `<html:checkbox`, Replacement: `<form:checkbox`},
	{Name: "radio", Pattern: `<html:radio`, Replacement: `<form:radiobutton`},
	{Name: "select-open", Pattern: `<html:select`, Replacement: `<form:select`},
	{Name: "select-close", Pattern: `</html:select>`, Replacement: `</form:select>`},
	{Name: "options-open", Pattern: `<html:options`, Replacement: `<form:options`},
	{Name: "options-close", Pattern: `</html:options>`, Replacement: `</form:options>`},
	{Name: "option-open", Pattern: `<html:option`, Replacement: `<form:option`},
	{Name: "option-close", Pattern: `</html:option>`, Replacement: `</form:option>`},
	{Name: "hidden", Pattern: `<html:hidden>`, Replacement: `<form:hidden>`},
	{Name: "reset", Pattern: `<html:reset>`, Replacement: `<input type="reset">`},
	{Name: "submit", Pattern: `<html:submit>`, Replacement: `<form:button type="submit">`},
	{Name: "button", Pattern: `<html:button>`, Replacement: `<form:button>`},
	{Name: "file", Pattern: `<html:file>`, Replacement: `<form:input type="file">`},
	{Name: "link", Pattern: `<html:link>`, Replacement: `<a href="<c:url value="${link}" />">`},
	{Name: "img", Pattern: `<html:img>`, Replacement: `<img src="<c:url value="${imageUrl}" />">`},
}

// Struts logic tags to JSTL core conditionals and loops.
var logicRules = []rewrite.Rule{
	{
		Name:        "equal",
		Pattern:     `<logic:equal\s+value="(?P<value>[^"]+)"\s*name="(?P<name>[^"]+)"\s*/?>`,
		Replacement: `<c:if test="${:[name] == :[value]}">`,
	},
	{
		Name:        "not-equal",
		Pattern:     `<logic:notEqual\s+value="(?P<value>[^"]+)"\s*name="(?P<name>[^"]+)"\s*/?>`,
		Replacement: `<c:if test="${:[name] != :[value]}">`,
	},
	{
		Name:        "greater-than",
		Pattern:     `<logic:greaterThan\s+value="(?P<value>[^"]+)"\s*name="(?P<name>[^"]+)"\s*/?>`,
		Replacement: `<c:if test="${:[name] > :[value]}">`,
	},
	{
		Name:        "less-than",
		Pattern:     `<logic:lessThan\s+value="(?P<value>[^"]+)"\s*name="(?P<name>[^"]+)"\s*/?>`,
		Replacement: `<c:if test="${:[name] < :[value]}">`,
	},
	{
		Name:        "empty",
		Pattern:     `<logic:empty\s*name="([^"]+)"\s*/?>`,
		Replacement: `<c:if test="${empty :[1]}">`,
	},
	{
		Name:        "not-empty",
		Pattern:     `<logic:notEmpty\s*name="([^"]+)"\s*/?>`,
		Replacement: `<c:if test="${not empty :[1]}">`,
	},
	{
		Name:        "conditional-close",
		Pattern:     `</logic:(?:equal|notEqual|greaterThan|lessThan|empty|notEmpty)>`,
		Replacement: `</c:if>`,
	},
	{
		Name:        "iterate",
		Pattern:     `(?s)<logic:iterate\s+id="([^"]+)"\s+name="([^"]+)"[^>]*>(.*?)</logic:iterate>`,
		Replacement: `<c:forEach var=":[1]" items="${:[2]}">:[3]</c:forEach>`,
	},
	{
		Name:        "forward",
		Pattern:     `<logic:forward\s+name="([^"]+)"\s+path="([^"]+)"\s*/>`,
		Replacement: `<c:redirect url=":[2]"/>`,
	},
}

// Struts bean tags to Spring messages and JSTL output.
var beanRules = []rewrite.Rule{
	{Name: "message", Pattern: `<bean:message\s+key="([^"]+)"\s*/>`, Replacement: `<spring:message code=":[1]"/>`},
	{Name: "write", Pattern: `<bean:write\s+name="([^"]+)"\s*/>`, Replacement: `<c:out value="${:[1]}"/>`},
	{Name: "define", Pattern: `<bean:define\s+name="([^"]+)"\s+property="([^"]+)"\s*/>`, Replacement: `<c:set var=":[1]" value="${:[1].:[2]}"/>`},
	{Name: "resource", Pattern: `<bean:resource\s+name="([^"]+)"\s*/>`, Replacement: `<c:url value=":[1]"/>`},
}

// Tiles tags to JSP includes and JSTL variables.
var tilesRules = []rewrite.Rule{
	{Name: "insert", Pattern: `<tiles:insert\s+page="([^"]+)"\s*/>`, Replacement: `<jsp:include page=":[1]"/>`},
	{Name: "put", Pattern: `<tiles:put\s+name="([^"]+)"\s*value="([^"]+)"\s*/>`, Replacement: `<c:set var=":[1]" value=":[2]"/>`},
	{Name: "put-list", Pattern: `<tiles:putList\s+name="([^"]+)"\s*value="([^"]+)"\s*/>`, Replacement: `<c:set var=":[1]" value=":[2]"/>`},
}

// Struts nested tags.
var nestedRules = []rewrite.Rule{
	{Name: "write", Pattern: `<nested:write\s+name="([^"]+)"\s*/>`, Replacement: `<c:out value="${:[1]}"/>`},
	{Name: "form", Pattern: `<nested:form\s+name="([^"]+)"\s*method="([^"]+)"\s*/>`, Replacement: `<form:form modelAttribute=":[1]" method=":[2]">`},
}

var strutsToSpring = rewrite.NewCatalog(
	rewrite.Group{Name: GroupHTML, Rules: htmlRules},
	rewrite.Group{Name: GroupLogic, Rules: logicRules},
	rewrite.Group{Name: GroupBean, Rules: beanRules},
	rewrite.Group{Name: GroupTiles, Rules: tilesRules},
	rewrite.Group{Name: GroupNested, Rules: nestedRules},
)

// StrutsToSpring returns the built-in catalog. Structural html tags are
// rewritten first so that tags nested inside logic blocks are already in
// the target dialect when the logic group runs.
func StrutsToSpring() *rewrite.Catalog {
	return strutsToSpring
}

// Names lists the built-in group names in application order.
func Names() []string {
	return []string{GroupHTML, GroupLogic, GroupBean, GroupTiles, GroupNested}
}
