package scanner

import (
	"strconv"
	"strings"

	"codevision/internal/classfile"
	"codevision/internal/graph"
)

func inspectEndpoints(model *graph.Model, cls *classfile.Class, node *graph.ClassNode) {
	classPaths := mappingPaths(cls.Annotations)
	classProduces := mappingAttr(cls.Annotations, "produces")
	classConsumes := mappingAttr(cls.Annotations, "consumes")

	beanFactory := false
	for _, m := range cls.Methods {
		if _, ok := hasAnnotation(m.Annotations, beanAnnotation); ok {
			beanFactory = true
		}
		if m.Is(classfile.AccBridge) || m.Is(classfile.AccSynthetic) {
			continue
		}

		methodPaths := mappingPaths(m.Annotations)
		if verb, routable := httpVerb(m.Annotations); routable || len(methodPaths) > 0 {
			paths := combinePaths(classPaths, methodPaths)
			produces := firstNonEmpty(mappingAttr(m.Annotations, "produces"), classProduces)
			consumes := firstNonEmpty(mappingAttr(m.Annotations, "consumes"), classConsumes)
			for _, p := range paths {
				model.AddEndpoint(graph.EndpointNode{
					Type:             graph.EndpointHTTP,
					HTTPMethod:       verb,
					Path:             p,
					ControllerClass:  cls.Name,
					ControllerMethod: m.Name,
					Produces:         produces,
					Consumes:         consumes,
					Framework:        FrameworkMVC,
				})
			}
			continue
		}

		if a, ok := hasAnnotation(m.Annotations, kafkaListener); ok {
			model.AddEndpoint(graph.EndpointNode{
				Type:             graph.EndpointMessageListener,
				Path:             listenerDescriptor(a),
				ControllerClass:  cls.Name,
				ControllerMethod: m.Name,
				Framework:        FrameworkKafka,
			})
			continue
		}

		if a, ok := hasAnnotation(m.Annotations, scheduled); ok {
			model.AddEndpoint(graph.EndpointNode{
				Type:             graph.EndpointScheduled,
				Path:             scheduleDescriptor(a),
				ControllerClass:  cls.Name,
				ControllerMethod: m.Name,
				Framework:        FrameworkScheduler,
			})
		}
	}

	if beanFactory {
		node.Stereotypes = graph.AppendUnique(node.Stereotypes, StereotypeBeanFactory)
	}
}

func isMapping(typ string) bool {
	if typ == requestMapping {
		return true
	}
	_, ok := mappingVerbs[typ]
	return ok
}

// mappingPaths collects value and path attributes of every mapping
// annotation. A mapping annotation without either contributes "/".
func mappingPaths(annotations []classfile.Annotation) []string {
	var out []string
	for _, a := range annotations {
		if !isMapping(a.Type) {
			continue
		}
		paths := append(a.Strings("value"), a.Strings("path")...)
		if len(paths) == 0 {
			paths = []string{"/"}
		}
		out = append(out, paths...)
	}
	return out
}

// httpVerb resolves the verb from the most specific mapping annotation, then
// the RequestMapping method attribute, then ANY. The second result reports
// whether any mapping annotation was present.
func httpVerb(annotations []classfile.Annotation) (string, bool) {
	found := false
	for _, a := range annotations {
		if verb, ok := mappingVerbs[a.Type]; ok {
			return verb, true
		}
		if a.Type == requestMapping {
			found = true
			if methods := a.Strings("method"); len(methods) > 0 {
				return strings.TrimPrefix(methods[0], "RequestMethod."), true
			}
		}
	}
	return anyVerb, found
}

// combinePaths forms the class × method cross-product with exactly one slash
// at each join. A class without paths is mapped at "/".
func combinePaths(classPaths, methodPaths []string) []string {
	if len(classPaths) == 0 {
		classPaths = []string{"/"}
	}
	if len(methodPaths) == 0 {
		return classPaths
	}
	out := make([]string, 0, len(classPaths)*len(methodPaths))
	for _, prefix := range classPaths {
		for _, suffix := range methodPaths {
			out = append(out, JoinPath(prefix, suffix))
		}
	}
	return out
}

// JoinPath joins two route segments with a single slash.
func JoinPath(prefix, suffix string) string {
	return strings.TrimRight(prefix, "/") + "/" + strings.TrimLeft(suffix, "/")
}

func mappingAttr(annotations []classfile.Annotation, name string) string {
	for _, a := range annotations {
		if !isMapping(a.Type) {
			continue
		}
		if v, ok := a.String(name); ok {
			return v
		}
	}
	return ""
}

func listenerDescriptor(a classfile.Annotation) string {
	if topics := a.Strings("topics"); len(topics) > 0 {
		return "topics=" + strings.Join(topics, ",")
	}
	if pattern, ok := a.String("topicPattern"); ok {
		return "topicPattern=" + pattern
	}
	return listenerPlaceholder
}

func scheduleDescriptor(a classfile.Annotation) string {
	if cron, ok := a.String("cron"); ok {
		return "cron=" + cron
	}
	for _, pair := range [][2]string{{"fixedDelay", "fixedDelayString"}, {"fixedRate", "fixedRateString"}} {
		if n, ok := a.Int(pair[0]); ok && n >= 0 {
			return pair[0] + "=" + strconv.FormatInt(n, 10)
		}
		if v, ok := a.String(pair[1]); ok {
			return pair[0] + "=" + v
		}
	}
	return schedulePlaceholder
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
