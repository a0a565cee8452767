package pipeline

// Cluster groups the records of one primary topic, in working-set order.
type Cluster struct {
	Topic   string
	Records []Record
}

// ClusterByTopic groups records by final primary topic. Cluster order is the
// order of each topic's first appearance in the record set.
func ClusterByTopic(records []Record) []Cluster {
	index := make(map[string]int)
	clusters := make([]Cluster, 0)
	for _, r := range records {
		i, ok := index[r.PrimaryTopic]
		if !ok {
			i = len(clusters)
			index[r.PrimaryTopic] = i
			clusters = append(clusters, Cluster{Topic: r.PrimaryTopic})
		}
		clusters[i].Records = append(clusters[i].Records, r)
	}
	return clusters
}

// FirstByRole returns the first record with the given role in the cluster,
// or false when the cluster has none.
func (c Cluster) FirstByRole(role string) (Record, bool) {
	for _, r := range c.Records {
		if r.Role == role {
			return r, true
		}
	}
	return Record{}, false
}

// UserTopicCounts counts user-authored records per topic across the working
// set. The promotion engine uses it for its frequency signal.
func UserTopicCounts(records []Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if r.Role == RoleUser {
			counts[r.PrimaryTopic]++
		}
	}
	return counts
}
