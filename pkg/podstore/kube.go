package podstore

import (
	"context"
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	k8stypes "k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/veridial/faceit/pkg/types"
)

// KubeStore implements PodOperations against the Kubernetes API.
//
// Conditional updates ride on the API server's own optimistic concurrency:
// the patch body carries metadata.resourceVersion, so the API server
// rejects the patch with a 409 if the pod changed since it was listed.
type KubeStore struct {
	client kubernetes.Interface
}

// NewKubeStore creates a store from an existing clientset
func NewKubeStore(client kubernetes.Interface) *KubeStore {
	return &KubeStore{client: client}
}

// NewInCluster creates a store using the in-cluster service account
func NewInCluster() (*KubeStore, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load in-cluster config: %v", err)
	}
	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %v", err)
	}
	return &KubeStore{client: client}, nil
}

// NewFromKubeconfig creates a store from a kubeconfig file, for running
// the API server outside the cluster
func NewFromKubeconfig(path string) (*KubeStore, error) {
	cfg, err := clientcmd.BuildConfigFromFlags("", path)
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %v", err)
	}
	client, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %v", err)
	}
	return &KubeStore{client: client}, nil
}

// List returns the worker units matching a label selector
func (s *KubeStore) List(ctx context.Context, namespace, labelSelector string) ([]types.WorkerUnit, error) {
	podList, err := s.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pods: %v", err)
	}

	units := make([]types.WorkerUnit, 0, len(podList.Items))
	for i := range podList.Items {
		units = append(units, unitFromPod(&podList.Items[i]))
	}
	return units, nil
}

// PatchStatus conditionally sets the status label of a pod
func (s *KubeStore) PatchStatus(ctx context.Context, namespace, name, expectedVersion string, status types.WorkerStatus) (types.WorkerUnit, error) {
	patch := map[string]interface{}{
		"metadata": map[string]interface{}{
			"labels": map[string]string{
				types.StatusLabel: string(status),
			},
			"resourceVersion": expectedVersion,
		},
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return types.WorkerUnit{}, fmt.Errorf("failed to marshal patch: %v", err)
	}

	pod, err := s.client.CoreV1().Pods(namespace).Patch(ctx, name, k8stypes.StrategicMergePatchType, body, metav1.PatchOptions{})
	if err != nil {
		switch {
		case apierrors.IsConflict(err):
			return types.WorkerUnit{}, fmt.Errorf("%w: %s", ErrConflict, name)
		case apierrors.IsNotFound(err):
			return types.WorkerUnit{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		default:
			return types.WorkerUnit{}, fmt.Errorf("failed to patch pod %s: %v", name, err)
		}
	}

	return unitFromPod(pod), nil
}

// Delete removes a pod
func (s *KubeStore) Delete(ctx context.Context, namespace, name string) error {
	err := s.client.CoreV1().Pods(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return fmt.Errorf("failed to delete pod %s: %v", name, err)
	}
	return nil
}

func unitFromPod(pod *corev1.Pod) types.WorkerUnit {
	return types.WorkerUnit{
		Name:            pod.Name,
		Namespace:       pod.Namespace,
		ResourceVersion: pod.ResourceVersion,
		IP:              pod.Status.PodIP,
		Status:          types.WorkerStatus(pod.Labels[types.StatusLabel]),
	}
}
