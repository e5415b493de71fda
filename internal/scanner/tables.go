package scanner

type set map[string]struct{}

func newSet(names ...string) set {
	s := make(set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s set) has(name string) bool {
	_, ok := s[name]
	return ok
}

var entityAnnotations = newSet(
	"jakarta.persistence.Entity",
	"javax.persistence.Entity",
	"org.springframework.data.mongodb.core.mapping.Document",
)

var tableAnnotations = newSet(
	"jakarta.persistence.Table",
	"javax.persistence.Table",
)

var relationshipAnnotations = newSet(
	"jakarta.persistence.OneToOne",
	"jakarta.persistence.OneToMany",
	"jakarta.persistence.ManyToOne",
	"jakarta.persistence.ManyToMany",
	"jakarta.persistence.JoinColumn",
	"jakarta.persistence.JoinTable",
	"javax.persistence.OneToOne",
	"javax.persistence.OneToMany",
	"javax.persistence.ManyToOne",
	"javax.persistence.ManyToMany",
	"javax.persistence.JoinColumn",
	"javax.persistence.JoinTable",
)

var injectionAnnotations = newSet(
	"org.springframework.beans.factory.annotation.Autowired",
	"jakarta.inject.Inject",
	"javax.inject.Inject",
	"jakarta.annotation.Resource",
	"javax.annotation.Resource",
)

// Stereotype tags.
const (
	StereotypeController    = "CONTROLLER"
	StereotypeService       = "SERVICE"
	StereotypeRepository    = "REPOSITORY"
	StereotypeComponent     = "COMPONENT"
	StereotypeConfiguration = "CONFIGURATION"
	StereotypeBeanFactory   = "BEAN_FACTORY"
)

var stereotypes = map[string]string{
	"org.springframework.web.bind.annotation.RestController": StereotypeController,
	"org.springframework.stereotype.Controller":              StereotypeController,
	"org.springframework.stereotype.Service":                 StereotypeService,
	"org.springframework.stereotype.Repository":              StereotypeRepository,
	"org.springframework.stereotype.Component":               StereotypeComponent,
	"org.springframework.context.annotation.Configuration":   StereotypeConfiguration,
}

const requestMapping = "org.springframework.web.bind.annotation.RequestMapping"

var mappingVerbs = map[string]string{
	"org.springframework.web.bind.annotation.GetMapping":    "GET",
	"org.springframework.web.bind.annotation.PostMapping":   "POST",
	"org.springframework.web.bind.annotation.PutMapping":    "PUT",
	"org.springframework.web.bind.annotation.DeleteMapping": "DELETE",
	"org.springframework.web.bind.annotation.PatchMapping":  "PATCH",
}

const (
	kafkaListener  = "org.springframework.kafka.annotation.KafkaListener"
	scheduled      = "org.springframework.scheduling.annotation.Scheduled"
	beanAnnotation = "org.springframework.context.annotation.Bean"
)

var generatorAnnotations = newSet(
	"jakarta.persistence.SequenceGenerator",
	"javax.persistence.SequenceGenerator",
	"jakarta.persistence.TableGenerator",
	"javax.persistence.TableGenerator",
	"org.hibernate.annotations.GenericGenerator",
)

var generatedValueAnnotations = newSet(
	"jakarta.persistence.GeneratedValue",
	"javax.persistence.GeneratedValue",
)

// Framework tags and placeholder descriptors.
const (
	FrameworkMVC       = "SPRING_MVC"
	FrameworkKafka     = "SPRING_KAFKA"
	FrameworkScheduler = "SPRING_SCHEDULER"

	listenerPlaceholder = "kafka-listener"
	schedulePlaceholder = "schedule"
	anyVerb             = "ANY"
)
