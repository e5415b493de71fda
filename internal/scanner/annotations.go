package scanner

// Classification of fully qualified annotation names, shared by every graph
// builder so that source and bytecode agree on tags.

// Stereotypes maps annotations to stereotype tags in annotation order
// without repeats.
func Stereotypes(annotations []string) []string { return resolveStereotypes(annotations) }

// IsInjectionTarget reports whether any stereotype other than CONTROLLER is
// present. Controllers receive injections but are never injected.
func IsInjectionTarget(stereotypes []string) bool {
	for _, st := range stereotypes {
		if st != StereotypeController {
			return true
		}
	}
	return false
}

func IsEntityAnnotation(name string) bool       { return entityAnnotations.has(name) }
func IsTableAnnotation(name string) bool        { return tableAnnotations.has(name) }
func IsInjectionAnnotation(name string) bool    { return injectionAnnotations.has(name) }
func IsRelationshipAnnotation(name string) bool { return relationshipAnnotations.has(name) }

// KnownAnnotation reports whether any scanner rule matches name.
func KnownAnnotation(name string) bool {
	for _, s := range []set{
		entityAnnotations,
		tableAnnotations,
		relationshipAnnotations,
		injectionAnnotations,
		generatorAnnotations,
		generatedValueAnnotations,
	} {
		if s.has(name) {
			return true
		}
	}
	if _, ok := stereotypes[name]; ok {
		return true
	}
	if _, ok := mappingVerbs[name]; ok {
		return true
	}
	switch name {
	case requestMapping, kafkaListener, scheduled, beanAnnotation:
		return true
	}
	return false
}
