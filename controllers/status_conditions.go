package controllers

import (
	"fmt"

	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	v1alpha1 "github.com/bayleafwalker/bindery-compose/api/v1alpha1"
)

func setCompositionCondition(comp *v1alpha1.Composition, condition metav1.Condition) {
	if comp == nil {
		return
	}
	condition.ObservedGeneration = comp.Generation
	meta.SetStatusCondition(&comp.Status.Conditions, condition)
}

func modulesLoadedMessage(count int) string {
	if count == 1 {
		return "1 module loaded"
	}
	return fmt.Sprintf("%d modules loaded", count)
}
